/**
 * @description
 * Data access layer for the affiliate payout service. All queries run
 * against Postgres through a pgx connection pool.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/emviapp/affiliate-payout-service/internal/domain"
)

var (
	ErrAffiliateNotFound = errors.New("affiliate not found")
	ErrPayoutNotFound    = errors.New("payout not found")

	// ErrPayoutExists signals that a payout row already exists for the
	// (affiliate, period_start, period_end) tuple. The unique index on
	// that tuple is the idempotency guard for the settlement batch.
	ErrPayoutExists = errors.New("payout already exists for period")
)

// Repository handles database operations for affiliates, conversions and payouts.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindAffiliateByUserID resolves the affiliate owned by the given user.
func (r *Repository) FindAffiliateByUserID(ctx context.Context, userID uuid.UUID) (*domain.Affiliate, error) {
	query := `
		SELECT id, user_id, slug, stripe_account_id, created_at, updated_at
		FROM affiliates
		WHERE user_id = $1
	`
	var affiliate domain.Affiliate
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&affiliate.ID,
		&affiliate.UserID,
		&affiliate.Slug,
		&affiliate.StripeAccountID,
		&affiliate.CreatedAt,
		&affiliate.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}

	return &affiliate, nil
}

// ListAffiliatesWithConversions returns the distinct affiliates that have at
// least one conversion inside the settlement period, together with their
// payable Stripe account. periodEnd is inclusive through end of day.
func (r *Repository) ListAffiliatesWithConversions(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.AffiliateCandidate, error) {
	query := `
		SELECT DISTINCT c.affiliate_id, a.stripe_account_id
		FROM affiliate_conversions c
		JOIN affiliates a ON a.id = c.affiliate_id
		WHERE c.created_at >= $1
		  AND c.created_at < $2
		ORDER BY c.affiliate_id
	`
	rows, err := r.db.Query(ctx, query, periodStart, endExclusive(periodEnd))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.AffiliateCandidate
	for rows.Next() {
		var candidate domain.AffiliateCandidate
		if err := rows.Scan(&candidate.AffiliateID, &candidate.StripeAccountID); err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	return candidates, rows.Err()
}

// SumConversions totals the commission recorded for an affiliate within the
// period. Returns decimal zero when there are no conversions.
func (r *Repository) SumConversions(ctx context.Context, affiliateID uuid.UUID, periodStart, periodEnd time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(commission_amount), 0)
		FROM affiliate_conversions
		WHERE affiliate_id = $1
		  AND created_at >= $2
		  AND created_at < $3
	`
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, affiliateID, periodStart, endExclusive(periodEnd)).Scan(&total); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

// CreatePayout inserts a payout row in processing state before any transfer
// is attempted. The insert relies on the unique index over
// (affiliate_id, period_start, period_end); a conflicting row makes the
// insert return nothing, which is surfaced as ErrPayoutExists.
func (r *Repository) CreatePayout(ctx context.Context, payout *domain.Payout) error {
	query := `
		INSERT INTO affiliate_payouts (id, affiliate_id, period_start, period_end, commission_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (affiliate_id, period_start, period_end) DO NOTHING
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		payout.ID,
		payout.AffiliateID,
		payout.PeriodStart,
		payout.PeriodEnd,
		payout.CommissionAmount,
		payout.Status,
	).Scan(&payout.CreatedAt, &payout.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrPayoutExists
		}
		return err
	}

	return nil
}

// MarkPayoutPaid records a successful transfer.
func (r *Repository) MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, transferID string, paidAt time.Time) error {
	query := `
		UPDATE affiliate_payouts
		SET status = 'paid',
		    stripe_transfer_id = $2,
		    paid_at = $3,
		    failure_reason = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, payoutID, transferID, paidAt)
	return err
}

// MarkPayoutFailed records a failed transfer and its reason.
func (r *Repository) MarkPayoutFailed(ctx context.Context, payoutID uuid.UUID, reason string) error {
	query := `
		UPDATE affiliate_payouts
		SET status = 'failed',
		    failure_reason = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, payoutID, reason)
	return err
}

// ListPayoutsByAffiliate retrieves recent payouts for an affiliate, newest
// period first.
func (r *Repository) ListPayoutsByAffiliate(ctx context.Context, affiliateID uuid.UUID, limit int) ([]domain.Payout, error) {
	query := `
		SELECT id, affiliate_id, period_start, period_end, commission_amount, status,
		       stripe_transfer_id, failure_reason, paid_at, created_at, updated_at
		FROM affiliate_payouts
		WHERE affiliate_id = $1
		ORDER BY period_start DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, affiliateID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		var payout domain.Payout
		if err := rows.Scan(
			&payout.ID,
			&payout.AffiliateID,
			&payout.PeriodStart,
			&payout.PeriodEnd,
			&payout.CommissionAmount,
			&payout.Status,
			&payout.StripeTransferID,
			&payout.FailureReason,
			&payout.PaidAt,
			&payout.CreatedAt,
			&payout.UpdatedAt,
		); err != nil {
			return nil, err
		}
		payouts = append(payouts, payout)
	}

	return payouts, rows.Err()
}

// endExclusive converts an inclusive period end date into the exclusive
// timestamp bound used by range queries, so the whole final day counts.
func endExclusive(periodEnd time.Time) time.Time {
	return periodEnd.AddDate(0, 0, 1)
}
