// Package google is a small client for the Google Maps Directions and
// Geocoding web services.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

const defaultBaseURL = "https://maps.googleapis.com"

var (
	// ErrNoResults is returned by ReverseGeocode when no address matches.
	ErrNoResults = errors.New("no results")

	// ErrAPIStatus is returned when the API answers with a non-OK status.
	ErrAPIStatus = errors.New("maps api error")
)

// Provider is the maps functionality the service depends on.
type Provider interface {
	// Directions returns driving routes from origin to destination, with
	// traffic-aware durations and alternatives. No route is not an error.
	Directions(ctx context.Context, origin, destination polyline.Point) (*DirectionsResponse, error)

	// ReverseGeocode returns the formatted address of p, or ErrNoResults.
	ReverseGeocode(ctx context.Context, p polyline.Point) (string, error)
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Maps web services.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a Client with its own http.Client.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return NewClientWithHTTPDoer(apiKey, defaultBaseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTPDoer creates a Client that sends requests through doer.
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: doer,
	}
}

// Directions implements Provider.
func (c *Client) Directions(ctx context.Context, origin, destination polyline.Point) (*DirectionsResponse, error) {
	params := url.Values{}
	params.Set("origin", formatLatLng(origin))
	params.Set("destination", formatLatLng(destination))
	params.Set("departure_time", "now")
	params.Set("alternatives", "true")
	params.Set("key", c.apiKey)

	var resp DirectionsResponse
	if err := c.get(ctx, "/maps/api/directions/json", params, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		resp.Routes = nil
	default:
		return nil, fmt.Errorf("%w: directions status %s: %s", ErrAPIStatus, resp.Status, resp.ErrorMessage)
	}
	return &resp, nil
}

// ReverseGeocode implements Provider.
func (c *Client) ReverseGeocode(ctx context.Context, p polyline.Point) (string, error) {
	params := url.Values{}
	params.Set("latlng", formatLatLng(p))
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "/maps/api/geocode/json", params, &resp); err != nil {
		return "", err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return "", ErrNoResults
	default:
		return "", fmt.Errorf("%w: geocode status %s: %s", ErrAPIStatus, resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 || resp.Results[0].FormattedAddress == "" {
		return "", ErrNoResults
	}
	return resp.Results[0].FormattedAddress, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: rate limit exceeded", ErrAPIStatus)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: http %d: %s", ErrAPIStatus, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func formatLatLng(p polyline.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}
