package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RibertaGames/routine-todo-api/internal/http/handler"
	"github.com/RibertaGames/routine-todo-api/internal/middleware"
	"github.com/RibertaGames/routine-todo-api/internal/service"
)

// RouterConfig carries the services each route group needs. AuthSvc may be
// nil when no identity provider is configured; the auth routes are then
// not mounted.
type RouterConfig struct {
	TaskSvc      *service.TaskService
	RoutineSvc   *service.RoutineService
	Materializer *service.Materializer
	UserSvc      *service.UserService
	AuthSvc      *service.AuthService
	Clock        service.Clock
	AuthLimiter  *middleware.RateLimiter
	Metrics      prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Health check - intentionally outside /api/v1 for ALB health check compatibility
	health := handler.NewHealthHandler()
	mux.Handle("/health", health)

	if cfg.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{}))
	}

	// Task CRUD API + day-grouped view
	taskHandler := handler.NewTaskHandler(cfg.TaskSvc)
	mux.Handle("/api/v1/tasks", taskHandler)
	mux.Handle("/api/v1/tasks/", taskHandler)

	// Routine CRUD API + materialization
	routineHandler := handler.NewRoutineHandler(cfg.RoutineSvc, cfg.Materializer, cfg.Clock)
	mux.Handle("/api/v1/routines", routineHandler)
	mux.Handle("/api/v1/routines/", routineHandler)

	// Profile
	userHandler := handler.NewUserHandler(cfg.UserSvc)
	mux.Handle("/api/v1/users/", userHandler)

	// Auth routes run unauthenticated, so they get the per-client rate limit.
	if cfg.AuthSvc != nil {
		var authHandler http.Handler = handler.NewAuthHandler(cfg.AuthSvc)
		if cfg.AuthLimiter != nil {
			authHandler = cfg.AuthLimiter.Middleware(authHandler)
		}
		mux.Handle("/api/v1/auth/", authHandler)
	}

	return mux
}
