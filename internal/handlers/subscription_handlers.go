package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"calendar_reminders/internal/models"
	"calendar_reminders/internal/repository"
	"calendar_reminders/internal/service"
)

type SubscriptionHandler struct {
	subs     *repository.SubscriptionRepository
	resolver *service.CachedSubscriptionResolver
}

func NewSubscriptionHandler(
	subs *repository.SubscriptionRepository,
	resolver *service.CachedSubscriptionResolver,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subs:     subs,
		resolver: resolver,
	}
}

// POST /api/subscriptions
// 201 + Location: /api/subscriptions/{id}
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	userID := userIDFrom(r)

	sub, err := h.subs.Create(r.Context(), userID, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.resolver != nil {
		h.resolver.Invalidate(r.Context(), userID)
	}

	w.Header().Set("Location", fmt.Sprintf("/api/subscriptions/%d", sub.ID))
	writeJSON(w, http.StatusCreated, models.NewSubscriptionResponse(sub))
}

// GET /api/subscriptions — устройства текущего пользователя.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.FindSubscriptionsByRecipient(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	res := make([]*models.SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		res = append(res, models.NewSubscriptionResponse(s))
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/subscriptions/{id}
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.subs.Get(r.Context(), userIDFrom(r), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subscription not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSubscriptionResponse(sub))
}

// DELETE /api/subscriptions/{id} -> 204
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userIDFrom(r)

	if err := h.subs.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subscription not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if h.resolver != nil {
		h.resolver.Invalidate(r.Context(), userID)
	}
	w.WriteHeader(http.StatusNoContent)
}
