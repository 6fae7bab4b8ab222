package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNotFound is returned when the directory has no matching country or the
// rates table has no usable rate for a currency.
var ErrNotFound = errors.New("not found upstream")

// Source names the upstream service an error came from.
type Source string

const (
	SourceCountries Source = "countries"
	SourceRates     Source = "rates"
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindStatus
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error is a failed upstream call. StatusCode is set for KindStatus only.
type Error struct {
	Source     Source
	Kind       Kind
	StatusCode int
	URL        string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s api: error response %d while requesting %s", e.Source, e.StatusCode, e.URL)
	case KindTimeout:
		return fmt.Sprintf("%s api: request to %s timed out", e.Source, e.URL)
	case KindDecode:
		return fmt.Sprintf("%s api: invalid response from %s: %v", e.Source, e.URL, e.Err)
	}
	return fmt.Sprintf("%s api: could not fetch data from %s: %v", e.Source, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func transportKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
