package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(
	r chi.Router,
	jwtSecret string,
	users *UserHandler,
	reminders *ReminderHandler,
	subscriptions *SubscriptionHandler,
	groups *GroupHandler,
) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/api/users", users.Register)
	r.Post("/api/login", users.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Get("/api/users/me", users.Me)

		r.Route("/api/reminders", func(r chi.Router) {
			r.Post("/", reminders.Create)
			r.Get("/", reminders.List)
			r.Get("/{id}", reminders.Get)
			r.Put("/{id}", reminders.Update)
			r.Delete("/{id}", reminders.Delete)
		})

		r.Route("/api/subscriptions", func(r chi.Router) {
			r.Post("/", subscriptions.Create)
			r.Get("/", subscriptions.List)
			r.Get("/{id}", subscriptions.Get)
			r.Delete("/{id}", subscriptions.Delete)
		})

		r.Route("/api/groups", func(r chi.Router) {
			r.Post("/", groups.Create)
			r.Get("/{id}", groups.Get)
			r.Get("/{id}/members", groups.Members)
			r.Put("/{id}/members/{user_id}", groups.AddMember)
			r.Delete("/{id}/members/{user_id}", groups.RemoveMember)
		})
	})
}
