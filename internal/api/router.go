/**
 * @description
 * HTTP router setup for the affiliate payout service using go-chi/chi.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers payout routes.
func NewRouter(h *Handler, jwksURL string, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute)) // settlement runs block until the batch completes
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Affiliate payout service is healthy"))
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))
		r.Post("/payouts/run", h.handleRunPayouts)
		r.Get("/affiliates/{id}/payouts", h.handleListAffiliatePayouts)
	})

	r.Group(func(r chi.Router) {
		r.Use(SupabaseAuthMiddleware(jwksURL))
		r.Get("/affiliate/payouts", h.handleMyPayouts)
		r.Get("/affiliate/earnings", h.handleMyEarnings)
	})

	return r
}
