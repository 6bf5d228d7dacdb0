package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/dpup/lighthouse/internal/config"
	"github.com/dpup/lighthouse/internal/store"
)

// EffectiveSettings is the merged configuration a refresh cycle runs with.
// It is built once per cycle and passed down; nothing downstream reads
// config or the settings row directly.
type EffectiveSettings struct {
	LocationName string
	ZoneCodes    []string
	Routes       []config.CommuteRoute
	Options      config.TrafficOptions
}

// SettingsResolver merges the persisted user settings row with server
// configuration defaults.
type SettingsResolver struct {
	store  *store.Store
	config *config.Config
}

// NewSettingsResolver creates a new SettingsResolver
func NewSettingsResolver(store *store.Store, config *config.Config) *SettingsResolver {
	return &SettingsResolver{store: store, config: config}
}

// Resolve produces the effective settings for one refresh cycle. Persisted
// values win over configuration defaults. Zone codes fall back to the
// configured default only when no settings row exists or the row has no
// location name; otherwise zone discovery is deferred to resolved-route
// zones.
func (r *SettingsResolver) Resolve(ctx context.Context) (*EffectiveSettings, error) {
	persisted, err := r.store.GetUserSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read user settings: %w", err)
	}

	effective := &EffectiveSettings{
		LocationName: r.config.Location.Name,
		Routes:       r.config.Traffic.Routes,
		Options:      r.config.Traffic.Options,
	}

	if persisted != nil {
		if persisted.LocationName != "" {
			effective.LocationName = persisted.LocationName
		}
		if len(persisted.TrafficRoutes) > 0 {
			var routes []config.CommuteRoute
			if err := json.Unmarshal(persisted.TrafficRoutes, &routes); err != nil {
				log.Printf("Ignoring malformed traffic_routes in settings: %v", err)
			} else {
				effective.Routes = routes
			}
		}
		if len(persisted.TrafficOptions) > 0 {
			var options config.TrafficOptions
			if err := json.Unmarshal(persisted.TrafficOptions, &options); err != nil {
				log.Printf("Ignoring malformed traffic_options in settings: %v", err)
			} else {
				effective.Options = options
			}
		}
	}

	if persisted == nil || persisted.LocationName == "" {
		effective.ZoneCodes = splitZoneCodes(r.config.Location.NWSZoneCodes)
	} else {
		effective.ZoneCodes = splitZoneCodes(persisted.NWSZoneCodes)
	}

	effective.Options = clampOptions(effective.Options)
	return effective, nil
}

// clampOptions bounds traffic options regardless of their source. Zero
// values are treated as unset and take the defaults.
func clampOptions(options config.TrafficOptions) config.TrafficOptions {
	if options.MaxAlternatives == 0 {
		options.MaxAlternatives = 3
	}
	if options.MaxAlternatives < 1 {
		options.MaxAlternatives = 1
	}
	if options.MaxAlternatives > 5 {
		options.MaxAlternatives = 5
	}

	if options.TimeMarginPercent == 0 {
		options.TimeMarginPercent = 15
	}
	if options.TimeMarginPercent < 5 {
		options.TimeMarginPercent = 5
	}
	if options.TimeMarginPercent > 50 {
		options.TimeMarginPercent = 50
	}
	return options
}

func splitZoneCodes(codes string) []string {
	var zones []string
	for _, code := range strings.Split(codes, ",") {
		code = strings.TrimSpace(code)
		if code != "" {
			zones = append(zones, code)
		}
	}
	return zones
}
