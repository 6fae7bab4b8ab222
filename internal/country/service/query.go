package service

import (
	"context"
	"fmt"

	"github.com/countrycache/countrycache/internal/country"
	"github.com/countrycache/countrycache/internal/country/repository"
)

// QueryService serves reads and deletes over the cached records.
type QueryService struct {
	repo repository.Repository
}

func NewQueryService(repo repository.Repository) *QueryService {
	return &QueryService{repo: repo}
}

// List returns matching records. An empty result is repository.ErrNotFound.
func (q *QueryService) List(ctx context.Context, f country.Filter) ([]*country.Country, error) {
	list, err := q.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no countries match filter", repository.ErrNotFound)
	}
	return list, nil
}

// Get looks a record up by name ignoring case.
func (q *QueryService) Get(ctx context.Context, name string) (*country.Country, error) {
	return q.repo.FindByName(ctx, name, true)
}

// Delete removes the record whose name matches exactly.
func (q *QueryService) Delete(ctx context.Context, name string) error {
	return q.repo.DeleteByName(ctx, name)
}

func (q *QueryService) Status(ctx context.Context) (country.Stats, error) {
	return q.repo.Stats(ctx)
}

// Ping reports whether the store is reachable.
func (q *QueryService) Ping(ctx context.Context) error {
	return q.repo.Ping(ctx)
}
