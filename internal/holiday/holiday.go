// Package holiday resolves public holidays through an external calendar
// provider. Provider unavailability is expected and degrades to "no
// holidays"; callers must never block a booking on a provider failure.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source returns the public holidays of a calendar year.
type Source interface {
	Holidays(ctx context.Context, year int) ([]time.Time, error)
}

// Client fetches holidays from a Nager.Date-compatible JSON endpoint:
// GET {baseURL}/{year}/{countryCode} returning [{"date":"2024-01-01",...}].
type Client struct {
	baseURL string
	country string
	http    *http.Client
}

// NewClient creates a holiday client for the given provider and country.
func NewClient(baseURL, countryCode string) *Client {
	return &Client{
		baseURL: baseURL,
		country: countryCode,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Holidays returns the holidays of the given year, midnight UTC.
func (c *Client) Holidays(ctx context.Context, year int) ([]time.Time, error) {
	url := fmt.Sprintf("%s/%d/%s", c.baseURL, year, c.country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build holiday request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday provider returned status %d", resp.StatusCode)
	}

	var entries []struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode holiday response: %w", err)
	}

	out := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday provider returned bad date %q: %w", e.Date, err)
		}
		out = append(out, d)
	}
	return out, nil
}
