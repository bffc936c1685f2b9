// Package geocode resolves free-text addresses to coordinates through an
// external geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wanderlust/internal/observability"
)

// ErrNoResults is returned when the provider recognizes the request but
// finds no candidate for the address. Callers treat it as a validation
// failure, not an outage.
var ErrNoResults = errors.New("geocode: no results for address")

// Result is one geocoding candidate.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
}

// Geocoder resolves a free-text address to zero or more candidates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Result, error)
}

// Client talks to a Google-style geocoding endpoint
// (…/geocode/json?address=…&key=…).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *observability.AdapterLogger
}

// NewClient creates a geocoding client for the given endpoint and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     observability.NewAdapterLogger("geocoder"),
	}
}

type apiResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves the address. A provider response with zero candidates
// (or status ZERO_RESULTS) yields ErrNoResults.
func (c *Client) Geocode(ctx context.Context, address string) ([]Result, error) {
	span, ctx := observability.NewSpan(ctx, "geocoder.geocode")
	defer span.End()

	q := url.Values{}
	q.Set("address", address)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		observability.GeocodeLookups.WithLabelValues("error").Inc()
		span.SetError(err)
		c.log.LogError(ctx, err, "geocode")
		return nil, fmt.Errorf("geocode: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		observability.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode: read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		observability.GeocodeLookups.WithLabelValues("error").Inc()
		err := fmt.Errorf("geocode: provider returned status %d", res.StatusCode)
		span.SetError(err)
		c.log.LogError(ctx, err, "geocode")
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		observability.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	if parsed.Status == "ZERO_RESULTS" || len(parsed.Results) == 0 {
		observability.GeocodeLookups.WithLabelValues("empty").Inc()
		return nil, ErrNoResults
	}
	if parsed.Status != "" && parsed.Status != "OK" {
		observability.GeocodeLookups.WithLabelValues("error").Inc()
		err := fmt.Errorf("geocode: provider status %s: %s", parsed.Status, parsed.ErrorMessage)
		span.SetError(err)
		return nil, err
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{
			Latitude:         r.Geometry.Location.Lat,
			Longitude:        r.Geometry.Location.Lng,
			FormattedAddress: r.FormattedAddress,
		})
	}

	observability.GeocodeLookups.WithLabelValues("ok").Inc()
	c.log.LogCall(ctx, "geocode", map[string]interface{}{"candidates": len(results)})
	return results, nil
}
