package country

import (
	"strings"
	"time"
)

// NullCurrency is stored as the currency code when the directory reports no currency.
const NullCurrency = "null"

// Country is the cached record combining directory metadata with the USD exchange rate.
// Name is unique across the store.
type Country struct {
	ID              int64     `json:"id" bson:"id"`
	Name            string    `json:"name" bson:"name"`
	Capital         string    `json:"capital" bson:"capital"`
	Region          string    `json:"region" bson:"region"`
	Population      float64   `json:"population" bson:"population"`
	CurrencyCode    string    `json:"currency_code" bson:"currencyCode"`
	ExchangeRate    *float64  `json:"exchange_rate" bson:"exchangeRate"`
	EstimatedGDP    float64   `json:"estimated_gdp" bson:"estimatedGdp"`
	FlagURL         string    `json:"flag_url" bson:"flagUrl"`
	LastRefreshedAt time.Time `json:"last_refreshed_at" bson:"lastRefreshedAt"`
}

// SortOrder selects the ordering applied to List results.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortGDPAsc
	SortGDPDesc
)

// ParseSort maps the query value to a SortOrder. Unknown values yield SortNone.
func ParseSort(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gdp_desc":
		return SortGDPDesc
	case "gdp_asc":
		return SortGDPAsc
	}
	return SortNone
}

// Filter narrows List results. Region and Currency match case-insensitively; empty means any.
// Limit <= 0 returns every match.
type Filter struct {
	Region   string
	Currency string
	Sort     SortOrder
	Limit    int
}

// Stats is the aggregate view used by /status and the summary report.
type Stats struct {
	Total           int64
	LastRefreshedAt *time.Time
}
