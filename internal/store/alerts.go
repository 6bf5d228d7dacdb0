package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Alert is one persisted active weather alert affecting the monitored area.
// Alerts are keyed by the provider's alert id so repeated fetches update in
// place rather than duplicating.
type Alert struct {
	ID          int64      `json:"id"`
	NWSID       string     `json:"nws_id"`
	Route       string     `json:"route"`
	AlertType   string     `json:"alert_type"`
	Description string     `json:"description"`
	Location    string     `json:"location,omitempty"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Severity    string     `json:"severity"`
	URL         string     `json:"url,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// UpsertAlerts writes the given alerts in one transaction, keyed by provider
// alert id
func (s *Store) UpsertAlerts(ctx context.Context, alerts []*Alert) error {
	if len(alerts) == 0 {
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
		INSERT INTO traffic_alerts (nws_id, route, alert_type, description,
			location, reported_at, expires_at, severity, url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(nws_id) DO UPDATE SET
			route = excluded.route,
			alert_type = excluded.alert_type,
			description = excluded.description,
			location = excluded.location,
			reported_at = excluded.reported_at,
			expires_at = excluded.expires_at,
			severity = excluded.severity,
			url = excluded.url,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare alert upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range alerts {
		_, err := stmt.ExecContext(ctx, a.NWSID, a.Route, a.AlertType, a.Description,
			nullIfEmpty(a.Location), formatTimePtr(a.ReportedAt), formatTimePtr(a.ExpiresAt),
			a.Severity, nullIfEmpty(a.URL), formatTime(a.FetchedAt))
		if err != nil {
			return fmt.Errorf("failed to upsert alert %q: %w", a.NWSID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}
	return nil
}

// PruneExpiredAlerts removes alerts whose expiry time has passed
func (s *Store) PruneExpiredAlerts(ctx context.Context, now time.Time) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM traffic_alerts WHERE expires_at IS NOT NULL AND expires_at < ?`,
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired alerts: %w", err)
	}
	return res.RowsAffected()
}

// ListActiveAlerts returns alerts that have not expired, newest first
func (s *Store) ListActiveAlerts(ctx context.Context, now time.Time) ([]*Alert, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, nws_id, route, alert_type, description, location,
			reported_at, expires_at, severity, url, fetched_at
		FROM traffic_alerts
		WHERE expires_at IS NULL OR expires_at >= ?
		ORDER BY reported_at DESC, id DESC`,
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		var a Alert
		var location, reportedAt, expiresAt, url, fetchedAt sql.NullString
		err := rows.Scan(&a.ID, &a.NWSID, &a.Route, &a.AlertType, &a.Description,
			&location, &reportedAt, &expiresAt, &a.Severity, &url, &fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Location = location.String
		a.ReportedAt = parseTimePtr(reportedAt)
		a.ExpiresAt = parseTimePtr(expiresAt)
		a.URL = url.String
		a.FetchedAt = parseTime(fetchedAt)
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}
