package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/countrycache/countrycache/internal/country"
	"github.com/lib/pq"
)

// PostgresRepo implements Repository on the countries table (see internal/database/migrations).
type PostgresRepo struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepo)(nil)

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectColumns = `SELECT id, name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at FROM countries`

// xmax is non-zero only when ON CONFLICT took the update path.
const upsertSQL = `
	INSERT INTO countries (name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (name) DO UPDATE SET
		capital = EXCLUDED.capital,
		region = EXCLUDED.region,
		population = EXCLUDED.population,
		currency_code = EXCLUDED.currency_code,
		exchange_rate = EXCLUDED.exchange_rate,
		estimated_gdp = EXCLUDED.estimated_gdp,
		flag_url = EXCLUDED.flag_url,
		last_refreshed_at = GREATEST(countries.last_refreshed_at, EXCLUDED.last_refreshed_at)
	RETURNING id, last_refreshed_at, (xmax <> 0) AS updated`

func (r *PostgresRepo) Upsert(ctx context.Context, c *country.Country) (*country.Country, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, classify(err)
	}
	// no-op after a successful Commit
	defer func() { _ = tx.Rollback() }()

	out := *c
	var updated bool
	row := tx.QueryRowContext(ctx, upsertSQL,
		c.Name, c.Capital, c.Region, c.Population, c.CurrencyCode,
		nullFloat(c.ExchangeRate), c.EstimatedGDP, c.FlagURL, c.LastRefreshedAt)
	if err := row.Scan(&out.ID, &out.LastRefreshedAt, &updated); err != nil {
		return nil, false, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, classify(err)
	}
	return &out, updated, nil
}

func (r *PostgresRepo) FindByName(ctx context.Context, name string, caseInsensitive bool) (*country.Country, error) {
	q := selectColumns + ` WHERE name = $1`
	if caseInsensitive {
		q = selectColumns + ` WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`
	}
	c, err := scanCountry(r.db.QueryRowContext(ctx, q, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(err)
	}
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context, f country.Filter) ([]*country.Country, error) {
	q, args := buildListQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]*country.Country, 0)
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func buildListQuery(f country.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Region != "" {
		args = append(args, f.Region)
		where = append(where, fmt.Sprintf("lower(region) = lower($%d)", len(args)))
	}
	if f.Currency != "" {
		args = append(args, f.Currency)
		where = append(where, fmt.Sprintf("lower(currency_code) = lower($%d)", len(args)))
	}

	var b strings.Builder
	b.WriteString(selectColumns)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	switch f.Sort {
	case country.SortGDPDesc:
		b.WriteString(" ORDER BY estimated_gdp DESC, id")
	case country.SortGDPAsc:
		b.WriteString(" ORDER BY estimated_gdp ASC, id")
	default:
		b.WriteString(" ORDER BY id")
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func (r *PostgresRepo) DeleteByName(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM countries WHERE name = $1`, name)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Stats(ctx context.Context) (country.Stats, error) {
	var (
		st   country.Stats
		last sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(last_refreshed_at) FROM countries`).Scan(&st.Total, &last)
	if err != nil {
		return country.Stats{}, classify(err)
	}
	if last.Valid {
		ts := last.Time.UTC()
		st.LastRefreshedAt = &ts
	}
	return st, nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCountry(s scanner) (*country.Country, error) {
	var (
		c                               country.Country
		capital, region, currency, flag sql.NullString
		population, gdp, rate           sql.NullFloat64
	)
	if err := s.Scan(&c.ID, &c.Name, &capital, &region, &population, &currency, &rate, &gdp, &flag, &c.LastRefreshedAt); err != nil {
		return nil, err
	}
	c.Capital = capital.String
	c.Region = region.String
	c.Population = population.Float64
	c.CurrencyCode = currency.String
	c.EstimatedGDP = gdp.Float64
	c.FlagURL = flag.String
	if rate.Valid {
		v := rate.Float64
		c.ExchangeRate = &v
	}
	c.LastRefreshedAt = c.LastRefreshedAt.UTC()
	return &c, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// classify maps driver errors onto the repository taxonomy. SQLSTATE class 23
// covers unique, not-null, check and foreign-key violations.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
