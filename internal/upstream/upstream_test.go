package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const directoryJSON = `[
  {"name":"Japan","capital":"Tokyo","region":"Asia","population":125836021,"flag":"https://flagcdn.com/jp.svg","currencies":[{"code":"JPY","name":"Japanese yen"}]},
  {"name":"Antarctica","region":"Polar","population":1000,"flag":"https://flagcdn.com/aq.svg"},
  {"name":"Zimbabwe","capital":"Harare","region":"Africa","population":14862927,"flag":"z.svg","currencies":[{"code":"USD"},{"code":"ZWL"}]}
]`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCountryLookupCaseInsensitive(t *testing.T) {
	srv := serve(t, http.StatusOK, directoryJSON)
	c := NewCountryClient(srv.URL, time.Second)

	got, err := c.Lookup(context.Background(), "  jApAn ")
	require.NoError(t, err)
	require.Equal(t, "Japan", got.Name)
	require.Equal(t, "Tokyo", got.Capital)
	require.Equal(t, "JPY", got.CurrencyCode)
	require.Equal(t, 125836021.0, got.Population)
	require.Equal(t, "https://flagcdn.com/jp.svg", got.FlagURL)
}

func TestCountryLookupFirstCurrencyAndNoCurrency(t *testing.T) {
	srv := serve(t, http.StatusOK, directoryJSON)
	c := NewCountryClient(srv.URL, time.Second)

	zw, err := c.Lookup(context.Background(), "Zimbabwe")
	require.NoError(t, err)
	require.Equal(t, "USD", zw.CurrencyCode)

	aq, err := c.Lookup(context.Background(), "antarctica")
	require.NoError(t, err)
	require.Empty(t, aq.CurrencyCode)
	require.Empty(t, aq.Capital)
}

func TestCountryLookupNotFound(t *testing.T) {
	srv := serve(t, http.StatusOK, directoryJSON)
	c := NewCountryClient(srv.URL, time.Second)

	_, err := c.Lookup(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ErrNotFound)

	// substring is not a match
	_, err = c.Lookup(context.Background(), "Jap")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCountryLookupStatusError(t *testing.T) {
	srv := serve(t, http.StatusBadGateway, `{"message":"down"}`)
	c := NewCountryClient(srv.URL, time.Second)

	_, err := c.Lookup(context.Background(), "Japan")
	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, KindStatus, ue.Kind)
	require.Equal(t, http.StatusBadGateway, ue.StatusCode)
	require.Equal(t, SourceCountries, ue.Source)
}

func TestCountryLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	c := NewCountryClient(srv.URL, 50*time.Millisecond)

	_, err := c.Lookup(context.Background(), "Japan")
	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, KindTimeout, ue.Kind)
}

func TestCountryLookupNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewCountryClient(url, time.Second)

	_, err := c.Lookup(context.Background(), "Japan")
	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, KindNetwork, ue.Kind)
}

func TestCountryLookupDecodeError(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"not":"an array"}`)
	c := NewCountryClient(srv.URL, time.Second)

	_, err := c.Lookup(context.Background(), "Japan")
	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, KindDecode, ue.Kind)
}

func TestRatesLookup(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"result":"success","base_code":"USD","rates":{"USD":1,"JPY":110.5,"XXX":0}}`)
	r := NewRatesClient(srv.URL, time.Second)

	v, err := r.Rate(context.Background(), "JPY")
	require.NoError(t, err)
	require.Equal(t, 110.5, v)

	_, err = r.Rate(context.Background(), "ABC")
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "exchange rate for currency 'ABC' not found")

	_, err = r.Rate(context.Background(), "XXX")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRatesStatusError(t *testing.T) {
	srv := serve(t, http.StatusTooManyRequests, `{}`)
	r := NewRatesClient(srv.URL, time.Second)

	_, err := r.Rate(context.Background(), "JPY")
	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, SourceRates, ue.Source)
	require.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestDefaultURLs(t *testing.T) {
	require.Equal(t, DefaultCountriesURL, NewCountryClient("", 0).URL)
	require.Equal(t, DefaultRatesURL, NewRatesClient("", 0).URL)
	require.Equal(t, DefaultTimeout, NewRatesClient("", 0).Client.Timeout)
}
