package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhebs/payout-service/internal/core/domain"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr string
	}{
		{name: "valid", amount: "100.00"},
		{name: "valid whole number", amount: "250"},
		{name: "valid single decimal", amount: "0.5"},
		{name: "valid at maximum", amount: "999999999.99"},
		{name: "smallest valid", amount: "0.01"},
		{name: "zero", amount: "0", wantErr: "greater than zero"},
		{name: "negative", amount: "-10.00", wantErr: "greater than zero"},
		{name: "above maximum", amount: "1000000000.00", wantErr: "exceeds maximum"},
		{name: "three decimal places", amount: "10.001", wantErr: "at most 2 decimal places"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "amount", ve.Field)
		})
	}
}

func TestValidateRecipientDetails(t *testing.T) {
	tests := []struct {
		name    string
		details map[string]any
		wantErr string
	}{
		{
			name:    "valid",
			details: map[string]any{"account_number": "1234567890"},
		},
		{
			name:    "valid with extra keys",
			details: map[string]any{"account_number": "DE89370400440532013000", "bank_name": "Deutsche Bank"},
		},
		{
			name:    "valid numeric account",
			details: map[string]any{"account_number": 1234567890},
		},
		{
			name:    "nil details",
			details: nil,
			wantErr: "required",
		},
		{
			name:    "missing account_number",
			details: map[string]any{"iban": "DE89"},
			wantErr: "must contain 'account_number'",
		},
		{
			name:    "null account_number",
			details: map[string]any{"account_number": nil},
			wantErr: "must contain 'account_number'",
		},
		{
			name:    "too short",
			details: map[string]any{"account_number": "1234"},
			wantErr: "at least 5 characters",
		},
		{
			name:    "empty account_number",
			details: map[string]any{"account_number": ""},
			wantErr: "at least 5 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateRecipientDetails(tt.details)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCurrency(t *testing.T) {
	for raw, want := range map[string]domain.Currency{
		"USD": domain.USD,
		"eur": domain.EUR,
		"Gbp": domain.GBP,
		"RUB": domain.RUB,
	} {
		got, ok := domain.ParseCurrency(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "JPY", "usd ", "dollars"} {
		_, ok := domain.ParseCurrency(raw)
		assert.False(t, ok, raw)
	}
}

func TestPayoutCanUpdate(t *testing.T) {
	p := &domain.Payout{Status: domain.StatusPending}
	assert.True(t, p.CanUpdate())

	for _, status := range []domain.Status{domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed} {
		p.Status = status
		assert.False(t, p.CanUpdate(), status)
	}
}
