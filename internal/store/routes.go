package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Route is one persisted commute route with its latest estimates. A route is
// identified by name; each refresh cycle replaces the estimate columns
// wholesale.
type Route struct {
	ID                       int64           `json:"id"`
	Name                     string          `json:"name"`
	Origin                   string          `json:"origin"`
	Destination              string          `json:"destination"`
	OriginLat                *float64        `json:"origin_lat,omitempty"`
	OriginLon                *float64        `json:"origin_lon,omitempty"`
	DestLat                  *float64        `json:"dest_lat,omitempty"`
	DestLon                  *float64        `json:"dest_lon,omitempty"`
	OriginZone               string          `json:"origin_zone,omitempty"`
	DestZone                 string          `json:"dest_zone,omitempty"`
	CurrentDurationMinutes   int             `json:"current_duration_minutes"`
	TypicalDurationMinutes   int             `json:"typical_duration_minutes"`
	DelayMinutes             int             `json:"delay_minutes"`
	MainRoads                json.RawMessage `json:"main_roads,omitempty"`
	AlternativesWithinMargin int             `json:"alternatives_within_margin"`
	TrafficNotes             string          `json:"traffic_notes,omitempty"`
	FetchedAt                time.Time       `json:"fetched_at"`
}

const routeColumns = `id, name, origin, destination,
	origin_lat, origin_lon, dest_lat, dest_lon, origin_zone, dest_zone,
	current_duration_minutes, typical_duration_minutes, delay_minutes,
	main_roads, alternatives_within_margin, traffic_notes, fetched_at`

func scanRoute(row interface{ Scan(...any) error }) (*Route, error) {
	var r Route
	var originZone, destZone, mainRoads, trafficNotes sql.NullString
	var current, typical, delay, withinMargin sql.NullInt64
	var fetchedAt sql.NullString

	err := row.Scan(&r.ID, &r.Name, &r.Origin, &r.Destination,
		&r.OriginLat, &r.OriginLon, &r.DestLat, &r.DestLon, &originZone, &destZone,
		&current, &typical, &delay,
		&mainRoads, &withinMargin, &trafficNotes, &fetchedAt)
	if err != nil {
		return nil, err
	}

	r.OriginZone = originZone.String
	r.DestZone = destZone.String
	r.CurrentDurationMinutes = int(current.Int64)
	r.TypicalDurationMinutes = int(typical.Int64)
	r.DelayMinutes = int(delay.Int64)
	if mainRoads.Valid && mainRoads.String != "" {
		r.MainRoads = json.RawMessage(mainRoads.String)
	}
	r.AlternativesWithinMargin = int(withinMargin.Int64)
	r.TrafficNotes = trafficNotes.String
	r.FetchedAt = parseTime(fetchedAt)
	return &r, nil
}

// ListRoutes returns all persisted routes in insertion order
func (s *Store) ListRoutes(ctx context.Context) ([]*Route, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+routeColumns+` FROM traffic_routes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	var routes []*Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

// GetRouteByName returns the route with the given name, or nil if absent
func (s *Store) GetRouteByName(ctx context.Context, name string) (*Route, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+routeColumns+` FROM traffic_routes WHERE name = ?`, name)
	r, err := scanRoute(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route %q: %w", name, err)
	}
	return r, nil
}

// SaveRoutes upserts the given routes by name in a single transaction, so a
// refresh cycle's results become visible atomically.
func (s *Store) SaveRoutes(ctx context.Context, routes []*Route) error {
	if len(routes) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO traffic_routes (name, origin, destination,
			origin_lat, origin_lon, dest_lat, dest_lon, origin_zone, dest_zone,
			current_duration_minutes, typical_duration_minutes, delay_minutes,
			main_roads, alternatives_within_margin, traffic_notes, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			origin = excluded.origin,
			destination = excluded.destination,
			origin_lat = excluded.origin_lat,
			origin_lon = excluded.origin_lon,
			dest_lat = excluded.dest_lat,
			dest_lon = excluded.dest_lon,
			origin_zone = excluded.origin_zone,
			dest_zone = excluded.dest_zone,
			current_duration_minutes = excluded.current_duration_minutes,
			typical_duration_minutes = excluded.typical_duration_minutes,
			delay_minutes = excluded.delay_minutes,
			main_roads = excluded.main_roads,
			alternatives_within_margin = excluded.alternatives_within_margin,
			traffic_notes = excluded.traffic_notes,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare route upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range routes {
		var mainRoads sql.NullString
		if len(r.MainRoads) > 0 {
			mainRoads = sql.NullString{String: string(r.MainRoads), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, r.Name, r.Origin, r.Destination,
			r.OriginLat, r.OriginLon, r.DestLat, r.DestLon,
			nullIfEmpty(r.OriginZone), nullIfEmpty(r.DestZone),
			r.CurrentDurationMinutes, r.TypicalDurationMinutes, r.DelayMinutes,
			mainRoads, r.AlternativesWithinMargin, nullIfEmpty(r.TrafficNotes),
			formatTime(r.FetchedAt))
		if err != nil {
			return fmt.Errorf("failed to upsert route %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit routes: %w", err)
	}
	return nil
}

// DeleteRoutesExcept removes persisted routes whose names are no longer
// configured. The deletion commits immediately, independent of any later
// failures in the cycle. An empty keep list clears the table.
func (s *Store) DeleteRoutesExcept(ctx context.Context, keep []string) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if len(keep) == 0 {
		res, err := s.conn.ExecContext(ctx, `DELETE FROM traffic_routes`)
		if err != nil {
			return 0, fmt.Errorf("failed to delete routes: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := strings.Repeat("?,", len(keep))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(keep))
	for i, name := range keep {
		args[i] = name
	}

	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM traffic_routes WHERE name NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale routes: %w", err)
	}
	return res.RowsAffected()
}

// DistinctZones returns the distinct non-empty NWS zone codes recorded on
// persisted routes, origin and destination combined.
func (s *Store) DistinctZones(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT DISTINCT zone FROM (
			SELECT origin_zone AS zone FROM traffic_routes
			UNION
			SELECT dest_zone AS zone FROM traffic_routes
		) WHERE zone IS NOT NULL AND zone != '' ORDER BY zone`)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []string
	for rows.Next() {
		var zone string
		if err := rows.Scan(&zone); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	return zones, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
