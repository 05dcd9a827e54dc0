package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/RibertaGames/routine-todo-api/internal/middleware"
	"github.com/RibertaGames/routine-todo-api/internal/service"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ServeHTTP routes /api/v1/tasks, /api/v1/tasks/grouped and /api/v1/tasks/{id}
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks")
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	head := parts[0]
	subPath := ""
	if len(parts) > 1 {
		subPath = parts[1]
	}

	// /api/v1/tasks/grouped
	if head == "grouped" && subPath == "" {
		h.handleListGrouped(w, r)
		return
	}

	// /api/v1/tasks/{id}/done
	if head != "" && subPath == "done" {
		h.handleSetDone(w, r, head)
		return
	}

	// /api/v1/tasks/{id}
	if head != "" {
		switch r.Method {
		case http.MethodGet:
			h.handleGetByID(w, r, head)
		case http.MethodPut:
			h.handleUpdate(w, r, head)
		case http.MethodDelete:
			h.handleDelete(w, r, head)
		default:
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
		return
	}

	// /api/v1/tasks
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

type createTaskRequest struct {
	Text          string  `json:"text"`
	ScheduledDate *string `json:"scheduled_date,omitempty"`
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	task, err := h.svc.Create(r.Context(), userID, service.CreateTaskInput{
		Text:          req.Text,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) handleGetByID(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	task, err := h.svc.GetByID(r.Context(), userID, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Text          *string `json:"text,omitempty"`
	ScheduledDate *string `json:"scheduled_date,omitempty"`
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	task, err := h.svc.Update(r.Context(), userID, taskID, service.UpdateTaskInput{
		Text:          req.Text,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	if err := h.svc.Delete(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setDoneRequest struct {
	Done bool `json:"done"`
}

func (h *TaskHandler) handleSetDone(w http.ResponseWriter, r *http.Request, taskID string) {
	if r.Method != http.MethodPatch {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	userID := getUserID(r)

	var req setDoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	task, err := h.svc.SetDone(r.Context(), userID, taskID, req.Done)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	var done *bool
	if doneStr := r.URL.Query().Get("done"); doneStr != "" {
		d, err := strconv.ParseBool(doneStr)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "INVALID_DONE", "done must be 'true' or 'false'")
			return
		}
		done = &d
	}

	tasks, err := h.svc.List(r.Context(), userID, done)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) handleListGrouped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	userID := getUserID(r)

	groups, err := h.svc.ListGrouped(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, groups)
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "access denied")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
