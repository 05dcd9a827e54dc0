package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/RibertaGames/routine-todo-api/internal/middleware"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(port string, logger *slog.Logger, cfg RouterConfig, auth *middleware.Auth, metrics *middleware.HTTPMetrics) *Server {
	router := NewRouter(cfg)

	// Middleware chain: recovery -> request ID -> logging -> metrics -> auth -> router
	var chain http.Handler = router
	if auth != nil {
		chain = auth.Middleware(chain)
	}
	if metrics != nil {
		chain = metrics.Middleware(chain)
	}
	chain = middleware.Logging(logger)(chain)
	chain = middleware.RequestID(chain)
	chain = middleware.Recovery(logger)(chain)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      chain,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
