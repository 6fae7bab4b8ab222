package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/countrycache/countrycache/internal/country"
	"github.com/countrycache/countrycache/internal/country/repository"
	"github.com/countrycache/countrycache/internal/upstream"
	"github.com/countrycache/countrycache/pkg/logger"
	"github.com/countrycache/countrycache/pkg/metrics"
)

// CountryFetcher resolves a country name against the upstream directory.
type CountryFetcher interface {
	Lookup(ctx context.Context, name string) (*upstream.CountryData, error)
}

// RateFetcher returns the USD exchange rate for a currency code.
type RateFetcher interface {
	Rate(ctx context.Context, code string) (float64, error)
}

// Reporter regenerates the summary artifact after a write.
type Reporter interface {
	Generate(ctx context.Context) error
}

// RefreshResult is what a refresh reports back to the caller.
type RefreshResult struct {
	Name            string
	CurrencyCode    string
	Updated         bool
	LastRefreshedAt time.Time
}

// RefreshService fetches a country and its rate, estimates GDP and upserts the record.
type RefreshService struct {
	countries CountryFetcher
	rates     RateFetcher
	repo      repository.Repository
	estimator *Estimator
	reporter  Reporter

	// Now is the refresh clock; overridable in tests.
	Now func() time.Time
}

// NewRefreshService wires the refresh flow. reporter may be nil.
func NewRefreshService(countries CountryFetcher, rates RateFetcher, repo repository.Repository, est *Estimator, reporter Reporter) *RefreshService {
	if est == nil {
		est = NewEstimator()
	}
	return &RefreshService{
		countries: countries,
		rates:     rates,
		repo:      repo,
		estimator: est,
		reporter:  reporter,
		Now:       time.Now,
	}
}

// Refresh runs fetch country, fetch rate, estimate, upsert and report, in that order.
// Any failure before the report step aborts the refresh. Report failures are only logged.
func (s *RefreshService) Refresh(ctx context.Context, name string) (*RefreshResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	data, err := s.countries.Lookup(ctx, name)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("country_lookup").Inc()
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, ErrCountryNotFound
		}
		return nil, err
	}

	c := &country.Country{
		Name:         data.Name,
		Capital:      data.Capital,
		Region:       data.Region,
		Population:   data.Population,
		CurrencyCode: country.NullCurrency,
		FlagURL:      data.FlagURL,
	}

	// no currency: rate lookup skipped, GDP stays 0
	if data.CurrencyCode != "" {
		c.CurrencyCode = data.CurrencyCode
		rate, err := s.rates.Rate(ctx, data.CurrencyCode)
		if err != nil {
			metrics.RefreshTotal.WithLabelValues("rate_lookup").Inc()
			if errors.Is(err, upstream.ErrNotFound) {
				return nil, &MissingRateError{Currency: data.CurrencyCode}
			}
			return nil, err
		}
		c.ExchangeRate = &rate
		c.EstimatedGDP = s.estimator.EstimateGDP(data.Population, rate)
	}

	// postgres keeps microseconds
	c.LastRefreshedAt = s.Now().UTC().Truncate(time.Microsecond)

	saved, updated, err := s.repo.Upsert(ctx, c)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("upsert %q: %w", c.Name, err)
	}
	if updated {
		metrics.RefreshTotal.WithLabelValues("updated").Inc()
	} else {
		metrics.RefreshTotal.WithLabelValues("created").Inc()
	}
	logger.Debugf("refresh: %s currency=%s updated=%v", saved.Name, saved.CurrencyCode, updated)

	if s.reporter != nil {
		if err := s.reporter.Generate(ctx); err != nil {
			metrics.ReportFailures.Inc()
			logger.Warnf("refresh: summary report failed after saving %s: %v", saved.Name, err)
		}
	}

	return &RefreshResult{
		Name:            saved.Name,
		CurrencyCode:    saved.CurrencyCode,
		Updated:         updated,
		LastRefreshedAt: saved.LastRefreshedAt,
	}, nil
}
