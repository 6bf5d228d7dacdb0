package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dpup/lighthouse/internal/clients/nws"
	"github.com/dpup/lighthouse/internal/store"
)

// maxAlertDescriptionLength bounds the stored alert body
const maxAlertDescriptionLength = 500

// defaultAlertTTL is assumed when the provider gives no expiry
const defaultAlertTTL = 4 * time.Hour

// AlertsService fetches active weather alerts affecting the monitored area
// and persists them for the read surface.
type AlertsService struct {
	nwsClient *nws.Client
	store     *store.Store
	settings  *SettingsResolver
}

// NewAlertsService creates a new AlertsService
func NewAlertsService(nwsClient *nws.Client, store *store.Store, settings *SettingsResolver) *AlertsService {
	return &AlertsService{nwsClient: nwsClient, store: store, settings: settings}
}

// FetchActiveAlerts runs one alert refresh. Zone scope comes from the
// effective settings; when unset, the distinct zones recorded on resolved
// routes are used instead. No zones at all is a no-op, not an error.
func (s *AlertsService) FetchActiveAlerts(ctx context.Context) (int, error) {
	settings, err := s.settings.Resolve(ctx)
	if err != nil {
		return 0, err
	}

	zones := settings.ZoneCodes
	if len(zones) == 0 {
		zones, err = s.store.DistinctZones(ctx)
		if err != nil {
			return 0, err
		}
	}
	if len(zones) == 0 {
		log.Printf("Alert fetch skipped: no weather zones configured or resolved yet")
		return 0, nil
	}

	now := time.Now()
	if pruned, err := s.store.PruneExpiredAlerts(ctx, now); err != nil {
		return 0, err
	} else if pruned > 0 {
		log.Printf("Pruned %d expired alerts", pruned)
	}

	zoneQuery := strings.Join(zones, ",")
	log.Printf("Fetching weather alerts for %s (zones %s)", settings.LocationName, zoneQuery)

	active, err := s.nwsClient.ActiveAlerts(ctx, zoneQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch alerts: %w", err)
	}

	records := make([]*store.Alert, 0, len(active))
	for _, alert := range active {
		records = append(records, s.toRecord(alert, zones[0], now))
	}
	if err := s.store.UpsertAlerts(ctx, records); err != nil {
		return 0, err
	}

	log.Printf("Stored %d active alerts", len(records))
	return len(records), nil
}

// toRecord maps a provider alert onto the persisted shape. Severe and
// extreme alerts rank as major, everything else as minor.
func (s *AlertsService) toRecord(alert nws.Alert, primaryZone string, now time.Time) *store.Alert {
	severity := "minor"
	switch strings.ToLower(alert.Severity) {
	case "severe", "extreme":
		severity = "major"
	}

	description := alert.Description
	if len(description) > maxAlertDescriptionLength {
		description = description[:maxAlertDescriptionLength]
	}
	if alert.Headline != "" {
		description = alert.Headline + ": " + description
	}

	reported := alert.Onset
	if reported == nil {
		reported = &now
	}
	expires := alert.Expires
	if expires == nil {
		fallback := now.Add(defaultAlertTTL)
		expires = &fallback
	}

	return &store.Alert{
		NWSID:       alert.ID,
		Route:       "Region-wide",
		AlertType:   "Weather Alert",
		Description: description,
		Location:    alert.AreaDesc,
		ReportedAt:  reported,
		ExpiresAt:   expires,
		Severity:    severity,
		URL:         fmt.Sprintf("https://forecast.weather.gov/MapClick.php?zoneid=%s", primaryZone),
		FetchedAt:   now,
	}
}
