package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"phonepe-relay/internal/domain"
)

// maxAmount is the first value that no longer fits NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// parseAmount accepts a positive decimal in major units. Amounts that round
// to zero minor units are rejected.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domain.ErrInvalidArgument)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", domain.ErrInvalidArgument, s)
	}
	if d.Shift(2).Round(0).Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount too large", domain.ErrInvalidArgument)
	}
	return d, nil
}
