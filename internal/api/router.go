package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter registers all game API endpoints.
func NewRouter(r Rounds, d Deposits, a Authenticator) http.Handler {
	h := NewHandler(r, d, a)
	router := chi.NewRouter()

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api", func(router chi.Router) {
		router.Post("/login", h.LoginHandler)
		router.Post("/logout", h.LogoutHandler)
		router.Post("/play", h.PlayHandler)
		router.Post("/deposit", h.DepositHandler)
		router.Post("/deposit/check", h.DepositCheckHandler)
	})

	return router
}
