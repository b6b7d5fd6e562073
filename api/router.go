package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"whisperline/api/middleware"
)

// NewRouter wires the REST surface and the live-channel upgrade endpoint.
// Authentication is resolved entirely in middleware: everything behind
// RequireAuth runs with an already-resolved identity.
func NewRouter(log *slog.Logger, h *Handler, authMw *middleware.AuthMiddleware,
	liveChannel http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authMw.RequireAuth)
			r.Get("/check", h.Check)
		})
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(authMw.RequireAuth)

		r.Get("/users", h.Contacts)
		r.Get("/{id}", h.Conversation)
		r.Post("/send/{id}", h.SendMessage)
		r.Put("/read/{messageId}", h.MarkRead)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMw.RequireAuth)
		r.Handle("/ws", liveChannel)
	})

	return r
}
