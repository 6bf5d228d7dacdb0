package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// UserSettings is the single persisted settings row. All fields are
// optional; absent values fall back to server configuration.
type UserSettings struct {
	LocationName   string          `json:"location_name,omitempty"`
	LocationLat    *float64        `json:"location_lat,omitempty"`
	LocationLon    *float64        `json:"location_lon,omitempty"`
	NWSZoneCodes   string          `json:"nws_zone_codes,omitempty"`
	TrafficRoutes  json.RawMessage `json:"traffic_routes,omitempty"`
	TrafficOptions json.RawMessage `json:"traffic_options,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// GetUserSettings returns the persisted settings row, or nil if none exists
func (s *Store) GetUserSettings(ctx context.Context) (*UserSettings, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT location_name, location_lat, location_lon, nws_zone_codes,
			traffic_routes, traffic_options, updated_at
		FROM user_settings WHERE id = 1`)

	var settings UserSettings
	var locationName, zoneCodes, routes, options, updatedAt sql.NullString
	err := row.Scan(&locationName, &settings.LocationLat, &settings.LocationLon,
		&zoneCodes, &routes, &options, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	settings.LocationName = locationName.String
	settings.NWSZoneCodes = zoneCodes.String
	if routes.Valid && routes.String != "" {
		settings.TrafficRoutes = json.RawMessage(routes.String)
	}
	if options.Valid && options.String != "" {
		settings.TrafficOptions = json.RawMessage(options.String)
	}
	settings.UpdatedAt = parseTime(updatedAt)
	return &settings, nil
}

// SaveUserSettings upserts the single settings row
func (s *Store) SaveUserSettings(ctx context.Context, settings *UserSettings) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var routes, options sql.NullString
	if len(settings.TrafficRoutes) > 0 {
		routes = sql.NullString{String: string(settings.TrafficRoutes), Valid: true}
	}
	if len(settings.TrafficOptions) > 0 {
		options = sql.NullString{String: string(settings.TrafficOptions), Valid: true}
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO user_settings (id, location_name, location_lat, location_lon,
			nws_zone_codes, traffic_routes, traffic_options, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			location_name = excluded.location_name,
			location_lat = excluded.location_lat,
			location_lon = excluded.location_lon,
			nws_zone_codes = excluded.nws_zone_codes,
			traffic_routes = excluded.traffic_routes,
			traffic_options = excluded.traffic_options,
			updated_at = excluded.updated_at`,
		nullIfEmpty(settings.LocationName), settings.LocationLat, settings.LocationLon,
		nullIfEmpty(settings.NWSZoneCodes), routes, options,
		formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}
	return nil
}
