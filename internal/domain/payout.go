/**
 * @description
 * Payout settlement records. A payout snapshots one affiliate's summed
 * commission for one Monday-Sunday settlement period and tracks the
 * outcome of the Stripe transfer for that period.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payout statuses. A payout is created as processing and transitions
// exactly once to paid or failed.
const (
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusFailed     = "failed"
)

// Payout represents one batch transfer attempt for one affiliate's
// accumulated commission in one settlement period. At most one payout
// exists per (affiliate_id, period_start, period_end).
type Payout struct {
	ID               uuid.UUID       `json:"id"`
	AffiliateID      uuid.UUID       `json:"affiliate_id"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Status           string          `json:"status"`
	StripeTransferID *string         `json:"stripe_transfer_id,omitempty"`
	FailureReason    *string         `json:"failure_reason,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// AffiliateCandidate pairs an affiliate with its payable destination for
// one settlement pass. It is the row shape returned when enumerating
// affiliates with conversion activity in a period.
type AffiliateCandidate struct {
	AffiliateID     uuid.UUID `json:"affiliate_id"`
	StripeAccountID *string   `json:"stripe_account_id,omitempty"`
}
