package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/RibertaGames/routine-todo-api/internal/model"
	"github.com/RibertaGames/routine-todo-api/internal/service"
)

type RoutineHandler struct {
	svc          *service.RoutineService
	materializer *service.Materializer
	clock        service.Clock
}

func NewRoutineHandler(svc *service.RoutineService, materializer *service.Materializer, clock service.Clock) *RoutineHandler {
	return &RoutineHandler{svc: svc, materializer: materializer, clock: clock}
}

// ServeHTTP routes /api/v1/routines, /api/v1/routines/materialize and /api/v1/routines/{id}
func (h *RoutineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/routines")
	path = strings.Trim(path, "/")

	// /api/v1/routines/materialize
	if path == "materialize" {
		h.handleMaterialize(w, r)
		return
	}

	// /api/v1/routines/{id}
	if path != "" {
		switch r.Method {
		case http.MethodGet:
			h.handleGetByID(w, r, path)
		case http.MethodPut:
			h.handleUpdate(w, r, path)
		case http.MethodDelete:
			h.handleDelete(w, r, path)
		default:
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
		return
	}

	// /api/v1/routines
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

// routineResponse adds the human-readable repeat summary to the routine body.
type routineResponse struct {
	model.Routine
	RepeatSummary string `json:"repeat_summary"`
}

func toRoutineResponse(r model.Routine) routineResponse {
	return routineResponse{Routine: r, RepeatSummary: r.RepeatSummary()}
}

func toRoutineResponses(routines []model.Routine) []routineResponse {
	out := make([]routineResponse, 0, len(routines))
	for _, r := range routines {
		out = append(out, toRoutineResponse(r))
	}
	return out
}

type createRoutineRequest struct {
	Text     string `json:"text"`
	Repeat   string `json:"repeat"`
	Weekdays []int  `json:"weekdays,omitempty"`
}

func (h *RoutineHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	var req createRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	routine, err := h.svc.Create(r.Context(), userID, service.CreateRoutineInput{
		Text:     req.Text,
		Repeat:   req.Repeat,
		Weekdays: req.Weekdays,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toRoutineResponse(routine))
}

func (h *RoutineHandler) handleGetByID(w http.ResponseWriter, r *http.Request, routineID string) {
	userID := getUserID(r)

	routine, err := h.svc.GetByID(r.Context(), userID, routineID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toRoutineResponse(routine))
}

type updateRoutineRequest struct {
	Text     *string `json:"text,omitempty"`
	Repeat   *string `json:"repeat,omitempty"`
	Weekdays *[]int  `json:"weekdays,omitempty"`
}

func (h *RoutineHandler) handleUpdate(w http.ResponseWriter, r *http.Request, routineID string) {
	userID := getUserID(r)

	var req updateRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	routine, err := h.svc.Update(r.Context(), userID, routineID, service.UpdateRoutineInput{
		Text:     req.Text,
		Repeat:   req.Repeat,
		Weekdays: req.Weekdays,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toRoutineResponse(routine))
}

func (h *RoutineHandler) handleDelete(w http.ResponseWriter, r *http.Request, routineID string) {
	userID := getUserID(r)

	if err := h.svc.Delete(r.Context(), userID, routineID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RoutineHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	routines, err := h.svc.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toRoutineResponses(routines))
}

// handleMaterialize spawns today's tasks for every due routine of the owner.
// Clients call this on app open; repeat calls within a day are no-ops.
func (h *RoutineHandler) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	userID := getUserID(r)

	tasks, err := h.materializer.MaterializeDueRoutines(r.Context(), h.clock.Today(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"spawned": tasks})
}
