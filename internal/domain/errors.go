package domain

import "errors"

var (
	// ErrInvalidSide is returned for any side other than BUY or SELL.
	ErrInvalidSide = errors.New("invalid side")
	// ErrInvalidQuantity is returned for quantities that are not positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
