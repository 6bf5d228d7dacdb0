package nws

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestForecastZone_Success(t *testing.T) {
	responseBody := `{"properties": {"forecastZone": "https://api.weather.gov/zones/forecast/MAZ005"}}`

	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, responseBody), nil)

	client := NewClientWithHTTPDoer("https://api.weather.gov", mockHTTP)

	zone, err := client.ForecastZone(context.Background(), 42.3601, -71.0589)
	require.NoError(t, err)
	assert.Equal(t, "MAZ005", zone)

	mockHTTP.AssertExpectations(t)
}

func TestForecastZone_SetsUserAgent(t *testing.T) {
	var capturedRequest *http.Request
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Run(func(args mock.Arguments) {
		capturedRequest = args.Get(0).(*http.Request)
	}).Return(createMockResponse(200, `{"properties": {"forecastZone": "https://api.weather.gov/zones/forecast/MAZ005"}}`), nil)

	client := NewClientWithHTTPDoer("https://api.weather.gov", mockHTTP)

	_, err := client.ForecastZone(context.Background(), 42.3601, -71.0589)
	require.NoError(t, err)

	require.NotNil(t, capturedRequest)
	assert.Contains(t, capturedRequest.URL.Path, "/points/42.3601,-71.0589")
	assert.NotEmpty(t, capturedRequest.Header.Get("User-Agent"))
}

func TestForecastZone_MissingZone(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, `{"properties": {}}`), nil)

	client := NewClientWithHTTPDoer("https://api.weather.gov", mockHTTP)

	_, err := client.ForecastZone(context.Background(), 42.3601, -71.0589)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no forecast zone")
}

func TestForecastZone_HTTPError(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(503, `{"detail": "unavailable"}`), nil)

	client := NewClientWithHTTPDoer("https://api.weather.gov", mockHTTP)

	_, err := client.ForecastZone(context.Background(), 42.3601, -71.0589)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API error 503")
}

func TestActiveAlerts_Success(t *testing.T) {
	responseBody := `{
		"features": [
			{"properties": {
				"id": "urn:oid:2.49.0.1.840.0.1",
				"headline": "Winter Storm Warning",
				"description": "Heavy snow expected.",
				"severity": "Severe",
				"areaDesc": "Middlesex County",
				"onset": "2026-02-01T06:00:00-05:00",
				"expires": "2026-02-01T18:00:00-05:00"
			}},
			{"properties": {"headline": "orphan without id"}}
		]
	}`

	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, responseBody), nil)

	client := NewClientWithHTTPDoer("https://api.weather.gov", mockHTTP)

	alerts, err := client.ActiveAlerts(context.Background(), "MAZ005,MAZ014")
	require.NoError(t, err)
	require.Len(t, alerts, 1, "features without an id are dropped")

	alert := alerts[0]
	assert.Equal(t, "urn:oid:2.49.0.1.840.0.1", alert.ID)
	assert.Equal(t, "Winter Storm Warning", alert.Headline)
	assert.Equal(t, "Severe", alert.Severity)
	require.NotNil(t, alert.Onset)
	require.NotNil(t, alert.Expires)
	assert.True(t, alert.Expires.After(*alert.Onset))
}

func TestActiveAlerts_ZoneQuery(t *testing.T) {
	var capturedRequest *http.Request
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Run(func(args mock.Arguments) {
		capturedRequest = args.Get(0).(*http.Request)
	}).Return(createMockResponse(200, `{"features": []}`), nil)

	client := NewClientWithHTTPDoer("https://api.weather.gov", mockHTTP)

	alerts, err := client.ActiveAlerts(context.Background(), "MAZ005")
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Equal(t, "MAZ005", capturedRequest.URL.Query().Get("zone"))
}
