package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultRatesURL serves the latest rates table with USD as base.
const DefaultRatesURL = "https://open.er-api.com/v6/latest/USD"

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// RatesClient reads the latest USD rates table. Rates are target currency units per 1 USD.
type RatesClient struct {
	URL    string
	Client *http.Client
}

func NewRatesClient(url string, timeout time.Duration) *RatesClient {
	if url == "" {
		url = DefaultRatesURL
	}
	return &RatesClient{URL: url, Client: newHTTPClient(timeout)}
}

// Rate returns the USD rate for code. A missing or non-positive rate is ErrNotFound.
func (r *RatesClient) Rate(ctx context.Context, code string) (float64, error) {
	var body ratesResponse
	if err := getJSON(ctx, r.Client, SourceRates, r.URL, &body); err != nil {
		return 0, err
	}
	rate, ok := body.Rates[code]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: exchange rate for currency '%s' not found", ErrNotFound, code)
	}
	return rate, nil
}
