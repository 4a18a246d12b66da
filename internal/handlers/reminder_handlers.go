package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"calendar_reminders/internal/cache"
	"calendar_reminders/internal/metrics"
	"calendar_reminders/internal/models"
	"calendar_reminders/internal/repository"
	"calendar_reminders/internal/service"

	"github.com/go-chi/chi/v5"
)

// ReminderService описывает методы сервисного слоя, которые нужны хендлерам.
type ReminderService interface {
	CreateReminder(ctx context.Context, groupID int64, req *models.ReminderRequest) (*models.Reminder, error)
	GetReminder(ctx context.Context, groupID, id int64) (*models.Reminder, error)
	ListReminders(ctx context.Context, groupID int64, start *int64, limit int) ([]*models.Reminder, error)
	UpdateReminder(ctx context.Context, groupID, id int64, req *models.ReminderRequest) error
	DeleteReminder(ctx context.Context, groupID, id int64) error
}

type ReminderHandler struct {
	service ReminderService
	cache   cache.Cache
	ttl     time.Duration
}

func NewReminderHandler(service ReminderService, c cache.Cache, ttl time.Duration) *ReminderHandler {
	return &ReminderHandler{
		service: service,
		cache:   c,
		ttl:     ttl,
	}
}

// POST /api/reminders
// 201 + Location: /api/reminders/{id}
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	rem, err := h.service.CreateReminder(r.Context(), groupIDFrom(r), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.invalidateLists(r.Context(), groupIDFrom(r))

	w.Header().Set("Location", fmt.Sprintf("/api/reminders/%d", rem.ID))
	writeJSON(w, http.StatusCreated, rem)
}

// GET /api/reminders?start=&limit=
// Без start — waiting-напоминания группы.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID := groupIDFrom(r)

	var start *int64
	if raw := r.URL.Query().Get("start"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be a number")
			return
		}
		start = &n
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	// 1) cache lookup
	var cacheKey string
	if h.cache != nil {
		st := "waiting"
		var s int64
		if start != nil {
			st = "all"
			s = *start
		}
		cacheKey = cache.ReminderListKey(groupID, st, s, limit)
		if b, ok, err := h.cache.Get(r.Context(), cacheKey); err == nil && ok {
			metrics.IncRedisHit()
			w.Header().Set("X-Cache", "HIT")
			writeRawJSON(w, http.StatusOK, b)
			return
		}
	}

	reminders, err := h.service.ListReminders(r.Context(), groupID, start, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	b, _ := json.Marshal(reminders)

	// 2) cache store + ключ в set для инвалидации
	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, b, h.ttl)

		setKey := cache.ReminderListKeysSetKey(groupID)
		_ = h.cache.SAdd(r.Context(), setKey, cacheKey)
		_ = h.cache.Expire(r.Context(), setKey, h.ttl)
	}

	metrics.IncRedisMiss()
	w.Header().Set("X-Cache", "MISS")
	writeRawJSON(w, http.StatusOK, b)
}

// GET /api/reminders/{id}
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rem, err := h.service.GetReminder(r.Context(), groupIDFrom(r), id)
	if err != nil {
		h.writeReminderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// PUT /api/reminders/{id} -> 204
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.ReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	if err := h.service.UpdateReminder(r.Context(), groupIDFrom(r), id, &req); err != nil {
		h.writeReminderError(w, err)
		return
	}

	h.invalidateLists(r.Context(), groupIDFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/reminders/{id} -> 204
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.DeleteReminder(r.Context(), groupIDFrom(r), id); err != nil {
		h.writeReminderError(w, err)
		return
	}

	h.invalidateLists(r.Context(), groupIDFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) writeReminderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "reminder not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *ReminderHandler) invalidateLists(ctx context.Context, groupID int64) {
	if h.cache == nil {
		return
	}
	setKey := cache.ReminderListKeysSetKey(groupID)
	keys, err := h.cache.SMembers(ctx, setKey)
	if err == nil && len(keys) > 0 {
		_ = h.cache.Del(ctx, keys...)
	}
	_ = h.cache.Del(ctx, setKey)
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
