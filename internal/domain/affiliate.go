/**
 * @description
 * Domain models for the affiliate program: affiliates, attributed
 * commission conversions, and settlement payouts.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Affiliate represents a partner account earning commission for referred
// signups. StripeAccountID is nil until the affiliate completes Connect
// onboarding and cannot receive funds before then.
type Affiliate struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Slug            string    `json:"slug"`
	StripeAccountID *string   `json:"stripe_account_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Conversion is a single attributed commission-earning event. Rows are
// written by the attribution pipeline and are immutable here.
type Conversion struct {
	ID               uuid.UUID       `json:"id"`
	AffiliateID      uuid.UUID       `json:"affiliate_id"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	CreatedAt        time.Time       `json:"created_at"`
}
