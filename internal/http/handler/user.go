package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/RibertaGames/routine-todo-api/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ServeHTTP routes /api/v1/users/me
func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/users")
	path = strings.Trim(path, "/")

	if path != "me" {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleMe(w, r)
	case http.MethodPut:
		h.handleUpdateProfile(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Nickname *string `json:"nickname,omitempty"`
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		Nickname: req.Nickname,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
