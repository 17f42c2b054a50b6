// Package services implements the gateway clients that translate each
// vendor API into the normalized MediaItem shape.
package services

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/errors"
)

// newHTTPClient builds the shared client configuration for provider calls.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: constants.HTTPTimeout * time.Second,
	}
}

// mapHTTPStatus converts a non-2xx provider response into the error
// taxonomy. Returns nil for 200.
func mapHTTPStatus(provider string, statusCode int) error {
	switch {
	case statusCode == http.StatusOK:
		return nil
	case statusCode == http.StatusTooManyRequests:
		return errors.NewProviderRateLimitedError(provider)
	default:
		return errors.NewProviderUnavailableError(provider, fmt.Errorf("status %d", statusCode))
	}
}

// readBody drains a provider response body, converting read failures into
// the error taxonomy.
func readBody(provider string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(provider, err)
	}
	return body, nil
}

// sortKeyOrDefault validates a caller-supplied sort key against the
// provider's accepted set, falling back to the provider default for empty
// or unknown keys.
func sortKeyOrDefault(key string, allowed []string, fallback string) string {
	for _, k := range allowed {
		if k == key {
			return k
		}
	}
	return fallback
}

// yearOf extracts the year from a provider date string ("2006-01-02" or
// "2006"). Returns 0 when the date is absent or unparseable; callers treat
// 0 as "unknown".
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// dateRange builds an inclusive "from,to" date window in the format RAWG
// and TMDB expect.
func dateRange(from, to time.Time) string {
	return from.Format("2006-01-02") + "," + to.Format("2006-01-02")
}
