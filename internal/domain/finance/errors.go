package finance

import "errors"

var (
	// ErrNegativeAmount indicates a negative quantity, price or tax input.
	ErrNegativeAmount = errors.New("negative quantity, price or tax amount")
	// ErrInvalidWithholding indicates a withholding percentage outside 0-100.
	ErrInvalidWithholding = errors.New("withholding percent must be between 0 and 100")
)
