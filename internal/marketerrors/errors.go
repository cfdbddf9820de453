package marketerrors

import "errors"

// Store-level errors
var (
	ErrNotFound            = errors.New("not found")
	ErrUserNotFound        = wrapNotFound("user")
	ErrListingNotFound     = wrapNotFound("listing")
	ErrOfferNotFound       = wrapNotFound("offer")
	ErrTransactionNotFound = wrapNotFound("transaction")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrStorage             = errors.New("storage failure")
)

// Business rule errors
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidState         = errors.New("invalid state transition")
	ErrInsufficientQuantity = errors.New("offer quantity exceeds remaining listing quantity")
	ErrForbidden            = errors.New("operation not permitted for this user")
	ErrValidation           = errors.New("validation failed")
)

// Collaborator errors
var (
	ErrRecommendationUnavailable = errors.New("recommendation unavailable")
	ErrPriceNotFound             = wrapNotFound("market price")
)

type notFoundError struct{ entity string }

func (e *notFoundError) Error() string { return e.entity + " not found" }
func (e *notFoundError) Unwrap() error { return ErrNotFound }

func wrapNotFound(entity string) error {
	return &notFoundError{entity: entity}
}
