/**
 * @description
 * Core business logic for the affiliate payout service. The weekly
 * settlement batch aggregates commission conversions per affiliate over the
 * settlement period, records a processing payout ahead of any money
 * movement, executes the Stripe transfer, and reconciles the outcome.
 *
 * @dependencies
 * - github.com/google/uuid: payout identifiers.
 * - github.com/shopspring/decimal: commission amounts.
 * - internal/domain, internal/store: domain models and data access errors.
 * - pkg/stripeclient: the external funds-transfer API.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emviapp/affiliate-payout-service/internal/domain"
	"github.com/emviapp/affiliate-payout-service/internal/store"
	"github.com/emviapp/affiliate-payout-service/pkg/stripeclient"
)

const (
	// EventsExchange is the topic exchange payout lifecycle events go to.
	EventsExchange = "emvi.events"

	payoutHistoryLimit  = 26
	failureReasonMaxLen = 500
)

// Repository defines the database operations the service needs.
type Repository interface {
	FindAffiliateByUserID(ctx context.Context, userID uuid.UUID) (*domain.Affiliate, error)
	ListAffiliatesWithConversions(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.AffiliateCandidate, error)
	SumConversions(ctx context.Context, affiliateID uuid.UUID, periodStart, periodEnd time.Time) (decimal.Decimal, error)
	CreatePayout(ctx context.Context, payout *domain.Payout) error
	MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, transferID string, paidAt time.Time) error
	MarkPayoutFailed(ctx context.Context, payoutID uuid.UUID, reason string) error
	ListPayoutsByAffiliate(ctx context.Context, affiliateID uuid.UUID, limit int) ([]domain.Payout, error)
}

// TransferClient defines the interface for the funds-transfer API.
type TransferClient interface {
	CreateTransfer(ctx context.Context, transfer stripeclient.TransferRequest) (*stripeclient.Transfer, error)
}

// EventPublisher defines the interface for publishing payout events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// Service provides the business logic for affiliate settlement.
type Service struct {
	repo          Repository
	transfers     TransferClient
	publisher     EventPublisher
	threshold     decimal.Decimal
	currency      string
	transferDelay time.Duration
}

// NewService creates a new affiliate payout service.
func NewService(repo Repository, transfers TransferClient, publisher EventPublisher, threshold decimal.Decimal, currency string, transferDelay time.Duration) *Service {
	return &Service{
		repo:          repo,
		transfers:     transfers,
		publisher:     publisher,
		threshold:     threshold,
		currency:      currency,
		transferDelay: transferDelay,
	}
}

// SettlementPeriodJSON carries the swept period bounds as ISO dates.
type SettlementPeriodJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SettlementResult summarizes one settlement run. Processed counts every
// affiliate for which a transfer was attempted; skipped affiliates (below
// threshold, no payable account, period already settled, data error) are
// not counted.
type SettlementResult struct {
	Success    bool                 `json:"success"`
	Period     SettlementPeriodJSON `json:"period"`
	Processed  int                  `json:"processed"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
}

type settleOutcome int

const (
	outcomeSkipped settleOutcome = iota
	outcomePaid
	outcomeFailed
)

// RunSettlement executes one settlement batch for the current settlement
// period. Per-affiliate errors are contained; only a failure to enumerate
// candidates is returned as an error.
func (s *Service) RunSettlement(ctx context.Context) (*SettlementResult, error) {
	periodStart, periodEnd := SettlementPeriod(time.Now().UTC())
	log.Printf("RunSettlement: settling period %s to %s", periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))

	candidates, err := s.repo.ListAffiliatesWithConversions(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate affiliates with conversions: %w", err)
	}

	result := &SettlementResult{
		Success: true,
		Period: SettlementPeriodJSON{
			Start: periodStart.Format("2006-01-02"),
			End:   periodEnd.Format("2006-01-02"),
		},
	}

	for i, candidate := range candidates {
		// Space out transfer attempts to stay under Stripe rate limits.
		if i > 0 && s.transferDelay > 0 {
			time.Sleep(s.transferDelay)
		}

		switch s.settleAffiliate(ctx, candidate, periodStart, periodEnd) {
		case outcomePaid:
			result.Processed++
			result.Successful++
		case outcomeFailed:
			result.Processed++
			result.Failed++
		}
	}

	log.Printf("RunSettlement: finished (processed=%d successful=%d failed=%d)", result.Processed, result.Successful, result.Failed)
	return result, nil
}

// settleAffiliate runs the full aggregate -> filter -> record -> transfer
// sequence for one affiliate. Every error path degrades to a skip or a
// failed payout; nothing here aborts the batch.
func (s *Service) settleAffiliate(ctx context.Context, candidate domain.AffiliateCandidate, periodStart, periodEnd time.Time) settleOutcome {
	total, err := s.repo.SumConversions(ctx, candidate.AffiliateID, periodStart, periodEnd)
	if err != nil {
		log.Printf("WARN: failed to sum conversions for affiliate %s: %v", candidate.AffiliateID, err)
		return outcomeSkipped
	}

	// Threshold is inclusive: a total exactly at the minimum pays out.
	if total.LessThan(s.threshold) {
		log.Printf("settleAffiliate: affiliate %s below threshold (total=%s), skipping", candidate.AffiliateID, total)
		return outcomeSkipped
	}

	if candidate.StripeAccountID == nil || *candidate.StripeAccountID == "" {
		log.Printf("settleAffiliate: affiliate %s has no payable Stripe account, skipping", candidate.AffiliateID)
		return outcomeSkipped
	}

	payout := &domain.Payout{
		ID:               uuid.New(),
		AffiliateID:      candidate.AffiliateID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		CommissionAmount: total,
		Status:           domain.PayoutStatusProcessing,
	}
	if err := s.repo.CreatePayout(ctx, payout); err != nil {
		if errors.Is(err, store.ErrPayoutExists) {
			log.Printf("settleAffiliate: period already settled for affiliate %s, skipping", candidate.AffiliateID)
		} else {
			log.Printf("WARN: failed to create payout for affiliate %s: %v", candidate.AffiliateID, err)
		}
		return outcomeSkipped
	}

	transfer, err := s.transfers.CreateTransfer(ctx, stripeclient.TransferRequest{
		Amount:         total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:       s.currency,
		Destination:    *candidate.StripeAccountID,
		Description:    fmt.Sprintf("Affiliate commission %s to %s", payout.PeriodStart.Format("2006-01-02"), payout.PeriodEnd.Format("2006-01-02")),
		IdempotencyKey: "affiliate_payout_" + payout.ID.String(),
		Metadata: map[string]string{
			"affiliate_id": payout.AffiliateID.String(),
			"payout_id":    payout.ID.String(),
			"period_start": payout.PeriodStart.Format("2006-01-02"),
			"period_end":   payout.PeriodEnd.Format("2006-01-02"),
		},
	})
	if err != nil {
		reason := truncateReason(err.Error())
		if markErr := s.repo.MarkPayoutFailed(ctx, payout.ID, reason); markErr != nil {
			log.Printf("WARN: failed to mark payout %s failed: %v", payout.ID, markErr)
		}
		payout.Status = domain.PayoutStatusFailed
		payout.FailureReason = &reason
		s.publishPayoutEvent(ctx, "affiliate.payout.failed", payout)
		log.Printf("settleAffiliate: transfer failed for affiliate %s payout %s: %v", candidate.AffiliateID, payout.ID, err)
		return outcomeFailed
	}

	paidAt := time.Now().UTC()
	if err := s.repo.MarkPayoutPaid(ctx, payout.ID, transfer.ID, paidAt); err != nil {
		// Money has moved; the row stays processing until reconciled by hand.
		log.Printf("CRITICAL: transfer %s succeeded but payout %s could not be marked paid: %v", transfer.ID, payout.ID, err)
	}
	payout.Status = domain.PayoutStatusPaid
	payout.StripeTransferID = &transfer.ID
	payout.PaidAt = &paidAt
	s.publishPayoutEvent(ctx, "affiliate.payout.paid", payout)

	return outcomePaid
}

// ListPayoutsForUser returns the payout history of the affiliate owned by
// the given user.
func (s *Service) ListPayoutsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Payout, error) {
	affiliate, err := s.repo.FindAffiliateByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayoutsByAffiliate(ctx, affiliate.ID, payoutHistoryLimit)
}

// ListPayoutsByAffiliate returns the payout history for a specific affiliate.
func (s *Service) ListPayoutsByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]domain.Payout, error) {
	return s.repo.ListPayoutsByAffiliate(ctx, affiliateID, payoutHistoryLimit)
}

// PendingEarnings reports the commission a user's affiliate has accrued
// since the end of the period the next settlement run will sweep.
type PendingEarnings struct {
	AffiliateID uuid.UUID       `json:"affiliate_id"`
	Since       string          `json:"since"`
	Total       decimal.Decimal `json:"total"`
}

// GetPendingEarnings sums the conversions recorded after the current
// settlement period, i.e. commission that no run has swept yet.
func (s *Service) GetPendingEarnings(ctx context.Context, userID uuid.UUID) (*PendingEarnings, error) {
	affiliate, err := s.repo.FindAffiliateByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, periodEnd := SettlementPeriod(now)
	since := periodEnd.AddDate(0, 0, 1)

	total, err := s.repo.SumConversions(ctx, affiliate.ID, since, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sum pending conversions: %w", err)
	}

	return &PendingEarnings{
		AffiliateID: affiliate.ID,
		Since:       since.Format("2006-01-02"),
		Total:       total,
	}, nil
}

type payoutEvent struct {
	AffiliateID   string     `json:"affiliate_id"`
	PayoutID      string     `json:"payout_id"`
	PeriodStart   string     `json:"period_start"`
	PeriodEnd     string     `json:"period_end"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	TransferID    *string    `json:"transfer_id,omitempty"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

func (s *Service) publishPayoutEvent(ctx context.Context, routingKey string, payout *domain.Payout) {
	if s.publisher == nil {
		return
	}

	payload := payoutEvent{
		AffiliateID:   payout.AffiliateID.String(),
		PayoutID:      payout.ID.String(),
		PeriodStart:   payout.PeriodStart.Format("2006-01-02"),
		PeriodEnd:     payout.PeriodEnd.Format("2006-01-02"),
		Amount:        payout.CommissionAmount.StringFixed(2),
		Currency:      s.currency,
		Status:        payout.Status,
		TransferID:    payout.StripeTransferID,
		FailureReason: payout.FailureReason,
		PaidAt:        payout.PaidAt,
		Timestamp:     time.Now(),
	}

	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("WARN: failed to publish payout event %s: %v", routingKey, err)
	}
}

func truncateReason(reason string) string {
	if len(reason) > failureReasonMaxLen {
		return reason[:failureReasonMaxLen]
	}
	return reason
}
