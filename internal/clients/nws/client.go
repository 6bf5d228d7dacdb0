package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// userAgent identifies this aggregator to the NWS API, which rejects
// anonymous clients.
const userAgent = "Lighthouse/0.1 (personal-aggregator)"

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the National Weather Service API
type Client struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewClient creates a new NWS API client. The NWS API needs no key.
func NewClient() *Client {
	return &Client{
		baseURL: "https://api.weather.gov",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation (for tests)
func NewClientWithHTTPDoer(baseURL string, doer HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: doer,
	}
}

// Alert is one active alert from the NWS alerts feed
type Alert struct {
	ID          string
	Headline    string
	Description string
	Severity    string
	AreaDesc    string
	Onset       *time.Time
	Expires     *time.Time
}

// pointResponse is the /points/{lat},{lon} envelope
type pointResponse struct {
	Properties struct {
		ForecastZone string `json:"forecastZone"`
	} `json:"properties"`
}

// alertsResponse is the /alerts/active envelope
type alertsResponse struct {
	Features []struct {
		Properties struct {
			ID          string `json:"id"`
			Headline    string `json:"headline"`
			Description string `json:"description"`
			Severity    string `json:"severity"`
			AreaDesc    string `json:"areaDesc"`
			Onset       string `json:"onset"`
			Expires     string `json:"expires"`
		} `json:"properties"`
	} `json:"features"`
}

// ForecastZone resolves coordinates to an NWS forecast-zone code, the
// trailing path segment of the zone URL (e.g. "MAZ005"). Any failure means
// no zone; callers tolerate that and retry on a later cycle.
func (c *Client) ForecastZone(ctx context.Context, lat, lon float64) (string, error) {
	requestURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)

	var response pointResponse
	if err := c.getJSON(ctx, requestURL, &response); err != nil {
		return "", err
	}

	zoneURL := response.Properties.ForecastZone
	if zoneURL == "" {
		return "", fmt.Errorf("no forecast zone for %.4f,%.4f", lat, lon)
	}

	parts := strings.Split(strings.TrimSuffix(zoneURL, "/"), "/")
	return parts[len(parts)-1], nil
}

// ActiveAlerts lists active alerts for a comma-separated zone code list
func (c *Client) ActiveAlerts(ctx context.Context, zoneCodes string) ([]Alert, error) {
	params := url.Values{}
	params.Set("zone", zoneCodes)

	requestURL := fmt.Sprintf("%s/alerts/active?%s", c.baseURL, params.Encode())

	var response alertsResponse
	if err := c.getJSON(ctx, requestURL, &response); err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(response.Features))
	for _, feature := range response.Features {
		props := feature.Properties
		if props.ID == "" {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          props.ID,
			Headline:    props.Headline,
			Description: props.Description,
			Severity:    props.Severity,
			AreaDesc:    props.AreaDesc,
			Onset:       parseTimestamp(props.Onset),
			Expires:     parseTimestamp(props.Expires),
		})
	}

	return alerts, nil
}

// parseTimestamp parses an RFC 3339 timestamp, returning nil when absent or malformed
func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

// getJSON executes a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, requestURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
