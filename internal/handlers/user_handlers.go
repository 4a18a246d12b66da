package handlers

import (
	"errors"
	"net/http"
	"time"

	"calendar_reminders/internal/models"
	"calendar_reminders/internal/repository"
)

type UserHandler struct {
	users     *repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserHandler(users *repository.UserRepository, jwtSecret string) *UserHandler {
	return &UserHandler{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
	}
}

// POST /api/users
// 201: { "id": int, "forename": "...", "email": "..." }
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// POST /api/login
// 200: { "token": "..." }
// 401: bad credentials
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	userID, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "bad credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.GetWithGroups(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// scope токена — первая группа пользователя
	var groupID int64
	if len(user.Groups) > 0 {
		groupID = user.Groups[0].ID
	}

	token, err := newToken(h.jwtSecret, userID, groupID, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetWithGroups(r.Context(), userIDFrom(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
