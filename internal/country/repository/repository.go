package repository

import (
	"context"
	"errors"

	"github.com/countrycache/countrycache/internal/country"
)

var (
	ErrNotFound = errors.New("country not found")
	// ErrIntegrity marks a uniqueness or constraint failure on write.
	ErrIntegrity = errors.New("store integrity violation")
	// ErrUnavailable wraps any other store-layer fault (connection, query, decode).
	ErrUnavailable = errors.New("store unavailable")
)

// Repository is the persistence contract for cached country records.
//
// Upsert is keyed by the exact name and must be atomic in the store: concurrent
// upserts of the same name leave exactly one record. The returned bool is true
// when an existing record was updated. LastRefreshedAt never moves backwards.
type Repository interface {
	Upsert(ctx context.Context, c *country.Country) (*country.Country, bool, error)
	FindByName(ctx context.Context, name string, caseInsensitive bool) (*country.Country, error)
	List(ctx context.Context, f country.Filter) ([]*country.Country, error)
	DeleteByName(ctx context.Context, name string) error
	Stats(ctx context.Context) (country.Stats, error)
	Ping(ctx context.Context) error
}
