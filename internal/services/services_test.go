package services

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpup/lighthouse/internal/clients/nws"
	"github.com/dpup/lighthouse/internal/clients/tomtom"
	"github.com/dpup/lighthouse/internal/config"
	"github.com/dpup/lighthouse/internal/store"
)

// stubResponse is one canned response keyed by a URL path substring
type stubResponse struct {
	pathContains string
	statusCode   int
	body         string
}

// stubDoer dispatches canned responses by URL path substring, first match
// wins. It also counts hits per substring so tests can assert which provider
// endpoints were exercised.
type stubDoer struct {
	responses []stubResponse
	hits      map[string]int
	requests  []string
}

func newStubDoer(responses ...stubResponse) *stubDoer {
	return &stubDoer{responses: responses, hits: map[string]int{}}
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req.URL.String())
	for _, r := range d.responses {
		if strings.Contains(req.URL.Path, r.pathContains) {
			d.hits[r.pathContains]++
			return &http.Response{
				StatusCode: r.statusCode,
				Body:       io.NopCloser(strings.NewReader(r.body)),
				Header:     make(http.Header),
			}, nil
		}
	}
	d.hits["unmatched"]++
	return &http.Response{
		StatusCode: 404,
		Body:       io.NopCloser(strings.NewReader(`{"message":"no stub"}`)),
		Header:     make(http.Header),
	}, nil
}

// harness wires a TrafficService and AlertsService against an in-memory
// store and stubbed providers
type harness struct {
	store   *store.Store
	traffic *TrafficService
	alerts  *AlertsService
}

func newHarness(t *testing.T, cfg *config.Config, tomtomDoer, nwsDoer *stubDoer) *harness {
	t.Helper()

	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))

	tomtomClient := tomtom.NewClientWithHTTPDoer("test-key", "https://api.tomtom.com", tomtomDoer)
	nwsClient := nws.NewClientWithHTTPDoer("https://api.weather.gov", nwsDoer)
	resolver := NewSettingsResolver(s, cfg)

	return &harness{
		store:   s,
		traffic: NewTrafficService(tomtomClient, nwsClient, s, resolver, cfg.Traffic.APIKey),
		alerts:  NewAlertsService(nwsClient, s, resolver),
	}
}

// testConfig returns a config with one coordinate-based route and no
// configured zone codes, so zone handling is driven entirely by lookups
func testConfig(routes ...config.CommuteRoute) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Traffic.APIKey = "test-key"
	cfg.Traffic.Routes = routes
	cfg.Location.NWSZoneCodes = ""
	return cfg
}

const simpleRoutingBody = `{
	"routes": [{
		"summary": {"travelTimeInSeconds": 1500, "trafficDelayInSeconds": 300},
		"sections": [{
			"sectionType": "IMPORTANT_ROAD_STRETCH",
			"startPointIndex": 0, "endPointIndex": 120,
			"roadNumbers": ["I-93"]
		}]
	}]
}`

const emptyIncidentsBody = `{"incidents": []}`

const zoneBody = `{"properties": {"forecastZone": "https://api.weather.gov/zones/forecast/MAZ005"}}`
