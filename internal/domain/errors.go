package domain

import "errors"

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidQuantity  = errors.New("quantity must be a non-negative number")
	ErrInvalidDateRange = errors.New("expected date must not be before order date")
	ErrInvalidStatus    = errors.New("invalid arrival status")
	ErrMissingProduct   = errors.New("product reference is required")
)

// IsValidation reports whether err is caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrMissingProduct)
}
