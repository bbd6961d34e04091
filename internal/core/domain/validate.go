package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmount is the inclusive upper bound for a payout amount.
var MaxAmount = decimal.RequireFromString("999999999.99")

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateAmount checks that amount is positive, within the maximum, and has
// at most 2 decimal places. Out-of-scale inputs are rejected, never rounded.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	if amount.GreaterThan(MaxAmount) {
		return &ValidationError{Field: "amount", Message: "exceeds maximum allowed"}
	}

	if amount.Exponent() < -2 {
		return &ValidationError{Field: "amount", Message: "must have at most 2 decimal places"}
	}

	return nil
}

// ValidateRecipientDetails checks that the details object carries an
// account_number whose stringified form is at least 5 characters long.
func ValidateRecipientDetails(details map[string]any) error {
	if details == nil {
		return &ValidationError{Field: "recipient_details", Message: "is required"}
	}

	account, ok := details["account_number"]
	if !ok || account == nil {
		return &ValidationError{Field: "recipient_details", Message: "must contain 'account_number'"}
	}

	if len(fmt.Sprint(account)) < 5 {
		return &ValidationError{Field: "recipient_details", Message: "account_number must be at least 5 characters"}
	}

	return nil
}
