package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultCountriesURL is the restcountries v2 directory restricted to the fields we cache.
const DefaultCountriesURL = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"

// CountryData is one directory entry. CurrencyCode is empty when none is reported.
type CountryData struct {
	Name         string
	Capital      string
	Region       string
	Population   float64
	FlagURL      string
	CurrencyCode string
}

type rcCountry struct {
	Name       string  `json:"name"`
	Capital    string  `json:"capital"`
	Region     string  `json:"region"`
	Population float64 `json:"population"`
	Flag       string  `json:"flag"`
	Currencies []struct {
		Code string `json:"code"`
	} `json:"currencies"`
}

// CountryClient looks countries up in the full directory. The upstream does not
// filter by name, so matching happens client-side.
type CountryClient struct {
	URL    string
	Client *http.Client
}

func NewCountryClient(url string, timeout time.Duration) *CountryClient {
	if url == "" {
		url = DefaultCountriesURL
	}
	return &CountryClient{URL: url, Client: newHTTPClient(timeout)}
}

// Lookup returns the entry whose name equals name ignoring case.
func (c *CountryClient) Lookup(ctx context.Context, name string) (*CountryData, error) {
	q := strings.TrimSpace(name)
	if q == "" {
		return nil, fmt.Errorf("%w: empty country name", ErrNotFound)
	}

	var all []rcCountry
	if err := getJSON(ctx, c.Client, SourceCountries, c.URL, &all); err != nil {
		return nil, err
	}
	for _, rc := range all {
		if !strings.EqualFold(strings.TrimSpace(rc.Name), q) {
			continue
		}
		d := &CountryData{
			Name:       rc.Name,
			Capital:    rc.Capital,
			Region:     rc.Region,
			Population: rc.Population,
			FlagURL:    rc.Flag,
		}
		// first reported currency only
		if len(rc.Currencies) > 0 {
			d.CurrencyCode = strings.TrimSpace(rc.Currencies[0].Code)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: country %q", ErrNotFound, q)
}
