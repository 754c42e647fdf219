package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrWarehouseNotFound    = errors.New("warehouse_not_found")
	ErrCutoffNotFound       = errors.New("cutoff_not_found")
	ErrRuleNotFound         = errors.New("rule_not_found")
	ErrShippingPrefNotFound = errors.New("shipping_preference_not_found")
	ErrHolidayNotFound      = errors.New("holiday_not_found")
	ErrUnknownThreshold     = errors.New("unknown_threshold")
	ErrConfirmationRequired = errors.New("confirmation_required")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
