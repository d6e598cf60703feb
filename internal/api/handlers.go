/**
 * @description
 * HTTP handlers for the affiliate payout service.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/emviapp/affiliate-payout-service/internal/app"
	"github.com/emviapp/affiliate-payout-service/internal/domain"
	"github.com/emviapp/affiliate-payout-service/internal/store"
)

// PayoutService defines the application operations the handlers expose.
type PayoutService interface {
	RunSettlement(ctx context.Context) (*app.SettlementResult, error)
	ListPayoutsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Payout, error)
	ListPayoutsByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]domain.Payout, error)
	GetPendingEarnings(ctx context.Context, userID uuid.UUID) (*app.PendingEarnings, error)
}

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service PayoutService
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service PayoutService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) handleRunPayouts(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunSettlement(r.Context())
	if err != nil {
		log.Printf("Error running affiliate settlement batch: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListAffiliatePayouts(w http.ResponseWriter, r *http.Request) {
	affiliateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid affiliate ID", http.StatusBadRequest)
		return
	}

	payouts, err := h.service.ListPayoutsByAffiliate(r.Context(), affiliateID)
	if err != nil {
		log.Printf("Error listing payouts for affiliate %s: %v", affiliateID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, payouts)
}

func (h *Handler) handleMyPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userUUIDFromRequest(w, r)
	if !ok {
		return
	}

	payouts, err := h.service.ListPayoutsForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrAffiliateNotFound) {
			http.Error(w, "Affiliate not found", http.StatusNotFound)
			return
		}
		log.Printf("Error listing payouts for user %s: %v", userID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, payouts)
}

func (h *Handler) handleMyEarnings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userUUIDFromRequest(w, r)
	if !ok {
		return
	}

	earnings, err := h.service.GetPendingEarnings(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrAffiliateNotFound) {
			http.Error(w, "Affiliate not found", http.StatusNotFound)
			return
		}
		log.Printf("Error computing pending earnings for user %s: %v", userID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, earnings)
}

func userUUIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	subject, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
		return uuid.Nil, false
	}

	return userID, true
}

// respondWithJSON writes JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
