package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	RUB Currency = "RUB"
)

// DefaultCurrency is used when a create request omits the currency.
const DefaultCurrency = USD

// ParseCurrency validates a raw currency code, ignoring case.
func ParseCurrency(raw string) (Currency, bool) {
	switch Currency(strings.ToUpper(raw)) {
	case USD:
		return USD, true
	case EUR:
		return EUR, true
	case GBP:
		return GBP, true
	case RUB:
		return RUB, true
	default:
		return "", false
	}
}

// Payout represents a single outgoing payment request.
//
// Amount is a fixed-point decimal with 2 fraction digits. RecipientDetails is
// an open-ended JSON object that must contain an "account_number" key.
type Payout struct {
	ID               uuid.UUID
	Amount           decimal.Decimal
	Currency         Currency
	RecipientDetails map[string]any
	Status           Status
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CanUpdate reports whether the payout accepts mutable-field updates.
// Only PENDING payouts are editable via the API.
func (p *Payout) CanUpdate() bool {
	return p.Status == StatusPending
}
