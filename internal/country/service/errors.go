package service

import (
	"errors"
	"fmt"

	"github.com/countrycache/countrycache/internal/upstream"
)

// ErrCountryNotFound is returned when the directory has no country with the requested name.
var ErrCountryNotFound = errors.New("country not found")

// ErrInvalidName rejects an empty refresh request.
var ErrInvalidName = errors.New("country name is required")

// MissingRateError reports a currency code absent from the rates table.
type MissingRateError struct {
	Currency string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("exchange rate for currency '%s' not found", e.Currency)
}

func (e *MissingRateError) Unwrap() error { return upstream.ErrNotFound }
