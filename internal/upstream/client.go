package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/countrycache/countrycache/pkg/metrics"
)

// DefaultTimeout bounds a single upstream call when the caller does not pick one.
const DefaultTimeout = 8 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON issues one GET and decodes the body into v. It never retries.
func getJSON(ctx context.Context, hc *http.Client, src Source, url string, v any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if ue, ok := err.(*Error); ok {
			outcome = ue.Kind.String()
		}
		metrics.UpstreamDuration.WithLabelValues(string(src), outcome).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Source: src, Kind: KindNetwork, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return &Error{Source: src, Kind: transportKind(err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &Error{Source: src, Kind: KindStatus, StatusCode: resp.StatusCode, URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		// a deadline hit mid-body still counts as a timeout
		if k := transportKind(err); k == KindTimeout {
			return &Error{Source: src, Kind: k, URL: url, Err: err}
		}
		return &Error{Source: src, Kind: KindDecode, URL: url, Err: err}
	}
	return nil
}
