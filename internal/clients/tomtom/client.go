package tomtom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dpup/lighthouse/internal/lib/geo"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the TomTom Search, Routing and Traffic APIs
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
}

// NewClient creates a new TomTom API client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.tomtom.com",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation (for tests)
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: doer,
	}
}

// Geocode resolves a free-text address to coordinates. Only the top result
// is requested; an empty result set is an error so callers can report the
// address as unresolvable.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Point, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("limit", "1")

	requestURL := fmt.Sprintf("%s/search/2/geocode/%s.json?%s",
		c.baseURL, url.PathEscape(address), params.Encode())

	var response geocodeResponse
	if err := c.getJSON(ctx, requestURL, &response); err != nil {
		return geo.Point{}, err
	}

	if len(response.Results) == 0 {
		return geo.Point{}, fmt.Errorf("no geocoding results for %q", address)
	}

	position := response.Results[0].Position
	return geo.NewPoint(position.Lat, position.Lon)
}

// CalculateRoute requests a traffic-aware route with up to maxAlternatives
// additional candidates beyond the primary, departing now, with important
// road stretch sections for road-name extraction. The returned slice keeps
// the provider's ranking; index 0 is the primary suggestion.
func (c *Client) CalculateRoute(ctx context.Context, origin, destination geo.Point, maxAlternatives int) ([]Route, error) {
	if maxAlternatives < 0 {
		maxAlternatives = 0
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("traffic", "true")
	params.Set("departAt", "now")
	params.Set("routeType", "fastest")
	params.Set("maxAlternatives", fmt.Sprintf("%d", maxAlternatives))
	params.Add("sectionType", "importantRoadStretch")
	params.Add("sectionType", "traffic")

	requestURL := fmt.Sprintf("%s/routing/1/calculateRoute/%.6f,%.6f:%.6f,%.6f/json?%s",
		c.baseURL,
		origin.Latitude, origin.Longitude,
		destination.Latitude, destination.Longitude,
		params.Encode())

	var response routingResponse
	if err := c.getJSON(ctx, requestURL, &response); err != nil {
		return nil, err
	}

	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("no routes found in response")
	}

	return response.Routes, nil
}

// IncidentDetails lists live traffic incidents inside a bounding box
func (c *Client) IncidentDetails(ctx context.Context, box geo.BoundingBox) ([]Incident, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("bbox", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", box.MinLon, box.MinLat, box.MaxLon, box.MaxLat))
	params.Set("fields", "{incidents{properties{iconCategory,from,to,delay,roadNumbers,events{description}}}}")
	params.Set("language", "en-US")

	requestURL := fmt.Sprintf("%s/traffic/services/5/incidentDetails?%s", c.baseURL, params.Encode())

	var response incidentsResponse
	if err := c.getJSON(ctx, requestURL, &response); err != nil {
		return nil, err
	}

	return response.Incidents, nil
}

// getJSON executes a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, requestURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return fmt.Errorf("rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
