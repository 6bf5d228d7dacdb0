package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/google/uuid"

	"github.com/dpup/lighthouse/internal/clients/nws"
	"github.com/dpup/lighthouse/internal/clients/tomtom"
	"github.com/dpup/lighthouse/internal/config"
	"github.com/dpup/lighthouse/internal/lib/geo"
	"github.com/dpup/lighthouse/internal/lib/traffic"
	"github.com/dpup/lighthouse/internal/store"
)

// incidentBoxPadding pads the route's bounding box by roughly 3-5 miles so
// incidents just off the direct line are still picked up.
const incidentBoxPadding = 0.05

// TrafficService refreshes commute estimates for the configured routes. One
// cycle resolves endpoints, fetches routing candidates, filters and
// aggregates alternatives, correlates incidents, and persists the results.
type TrafficService struct {
	tomtomClient *tomtom.Client
	nwsClient    *nws.Client
	store        *store.Store
	settings     *SettingsResolver
	apiKey       string
}

// NewTrafficService creates a new TrafficService
func NewTrafficService(tomtomClient *tomtom.Client, nwsClient *nws.Client, store *store.Store, settings *SettingsResolver, apiKey string) *TrafficService {
	return &TrafficService{
		tomtomClient: tomtomClient,
		nwsClient:    nwsClient,
		store:        store,
		settings:     settings,
		apiKey:       apiKey,
	}
}

// RefreshRouteEstimates runs one refresh cycle. Routes are processed
// sequentially to respect provider rate limits. Per-route failures are
// collected as operator-facing strings and the cycle continues; only
// persistence failures abort the batch. Returns the number of routes updated
// plus the collected errors; a non-empty error list alongside a positive
// count is partial success.
func (s *TrafficService) RefreshRouteEstimates(ctx context.Context) (int, []string) {
	cycle := uuid.NewString()[:8]

	settings, err := s.settings.Resolve(ctx)
	if err != nil {
		logging.Errorw(ctx, "Traffic refresh: settings unavailable", "error", err)
		return 0, []string{fmt.Sprintf("settings unavailable: %v", err)}
	}

	if s.apiKey == "" || len(settings.Routes) == 0 {
		log.Printf("[%s] Traffic refresh skipped: no API key or no routes configured", cycle)
		return 0, nil
	}

	// Prune routes dropped from configuration before any per-route work, so
	// a crash mid-batch doesn't leave rows for unconfigured routes.
	names := make([]string, len(settings.Routes))
	for i, route := range settings.Routes {
		names[i] = route.Name
	}
	if deleted, err := s.store.DeleteRoutesExcept(ctx, names); err != nil {
		logging.Errorw(ctx, "Traffic refresh: stale route pruning failed", "error", err)
		return 0, []string{fmt.Sprintf("stale route pruning failed: %v", err)}
	} else if deleted > 0 {
		log.Printf("[%s] Pruned %d stale routes", cycle, deleted)
	}

	log.Printf("[%s] Refreshing %d commute routes", cycle, len(settings.Routes))

	var updates []*store.Route
	var errs []string
	for _, routeConfig := range settings.Routes {
		record, routeErrs := s.refreshRoute(ctx, cycle, routeConfig, settings)
		errs = append(errs, routeErrs...)
		if record == nil {
			continue
		}

		existing, err := s.store.GetRouteByName(ctx, routeConfig.Name)
		if err != nil {
			logging.Errorw(ctx, "Traffic refresh: route lookup failed", "error", err, "route", routeConfig.Name)
			return 0, []string{fmt.Sprintf("route lookup failed: %v", err)}
		}
		s.fillZones(ctx, cycle, record, existing)
		updates = append(updates, record)
	}

	// One commit for the whole batch; routes that failed above are simply
	// absent and keep their previous values.
	if err := s.store.SaveRoutes(ctx, updates); err != nil {
		logging.Errorw(ctx, "Traffic refresh: persisting routes failed", "error", err)
		return 0, []string{fmt.Sprintf("persisting routes failed: %v", err)}
	}

	log.Printf("[%s] Traffic refresh complete: %d updated, %d errors", cycle, len(updates), len(errs))
	return len(updates), errs
}

// refreshRoute computes the persisted record for one configured route.
// Returns nil with error strings when the route must be skipped this cycle.
func (s *TrafficService) refreshRoute(ctx context.Context, cycle string, routeConfig config.CommuteRoute, settings *EffectiveSettings) (*store.Route, []string) {
	origin, ok := s.resolveEndpoint(ctx, routeConfig.Origin)
	if !ok {
		return nil, []string{fmt.Sprintf("Could not resolve origin: %s", routeConfig.Origin)}
	}
	destination, ok := s.resolveEndpoint(ctx, routeConfig.Destination)
	if !ok {
		return nil, []string{fmt.Sprintf("Could not resolve destination: %s", routeConfig.Destination)}
	}

	alternatives := settings.Options.MaxAlternatives - 1
	candidates, err := s.tomtomClient.CalculateRoute(ctx, origin, destination, alternatives)
	if err != nil {
		return nil, []string{fmt.Sprintf("Route %q: %v", routeConfig.Name, err)}
	}

	// The provider's first candidate is its primary suggestion and drives
	// the headline numbers, independent of the margin filter.
	primary := candidates[0].Summary
	current := 0
	if primary.TravelTimeInSeconds != nil {
		current = roundMinutes(*primary.TravelTimeInSeconds)
	}
	delay := roundMinutes(primary.TrafficDelayInSeconds)

	within := traffic.RoutesWithinMargin(candidates, settings.Options.TimeMarginPercent)

	notes := ""
	box := geo.BoundingBoxAround(origin, destination, incidentBoxPadding)
	incidents, err := s.tomtomClient.IncidentDetails(ctx, box)
	if err != nil {
		log.Printf("[%s] Incident lookup failed for %q: %v", cycle, routeConfig.Name, err)
	} else {
		notes = traffic.SummarizeIncidents(incidents)
	}

	mainRoads, err := json.Marshal(traffic.AggregateMainRoads(candidates, within, notes))
	if err != nil {
		return nil, []string{fmt.Sprintf("Route %q: %v", routeConfig.Name, err)}
	}

	return &store.Route{
		Name:                     routeConfig.Name,
		Origin:                   routeConfig.Origin,
		Destination:              routeConfig.Destination,
		OriginLat:                &origin.Latitude,
		OriginLon:                &origin.Longitude,
		DestLat:                  &destination.Latitude,
		DestLon:                  &destination.Longitude,
		CurrentDurationMinutes:   current,
		TypicalDurationMinutes:   current - delay,
		DelayMinutes:             delay,
		MainRoads:                mainRoads,
		AlternativesWithinMargin: len(within),
		TrafficNotes:             notes,
		FetchedAt:                time.Now(),
	}, nil
}

// resolveEndpoint turns a configured endpoint string into coordinates,
// geocoding when it isn't already a "lat,lng" pair
func (s *TrafficService) resolveEndpoint(ctx context.Context, raw string) (geo.Point, bool) {
	point, matched, err := geo.ParsePoint(raw)
	if matched {
		if err != nil {
			return geo.Point{}, false
		}
		return point, true
	}

	point, err = s.tomtomClient.Geocode(ctx, raw)
	if err != nil {
		log.Printf("Geocoding failed for %q: %v", raw, err)
		return geo.Point{}, false
	}
	return point, true
}

// fillZones carries forward stored weather zones and looks up only the ones
// still missing. A stored zone is never replaced, which bounds zone-lookup
// calls over the route's lifetime.
func (s *TrafficService) fillZones(ctx context.Context, cycle string, record *store.Route, existing *store.Route) {
	if existing != nil {
		record.OriginZone = existing.OriginZone
		record.DestZone = existing.DestZone
	}

	if record.OriginZone == "" && record.OriginLat != nil {
		zone, err := s.nwsClient.ForecastZone(ctx, *record.OriginLat, *record.OriginLon)
		if err != nil {
			log.Printf("[%s] Zone lookup failed for %q origin: %v", cycle, record.Name, err)
		} else {
			record.OriginZone = zone
		}
	}
	if record.DestZone == "" && record.DestLat != nil {
		zone, err := s.nwsClient.ForecastZone(ctx, *record.DestLat, *record.DestLon)
		if err != nil {
			log.Printf("[%s] Zone lookup failed for %q destination: %v", cycle, record.Name, err)
		} else {
			record.DestZone = zone
		}
	}
}

func roundMinutes(seconds int) int {
	return int(math.Round(float64(seconds) / 60.0))
}
