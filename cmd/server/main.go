package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/dpup/prefab"
	"github.com/joho/godotenv"

	"github.com/dpup/lighthouse/internal/clients/nws"
	"github.com/dpup/lighthouse/internal/clients/tomtom"
	"github.com/dpup/lighthouse/internal/config"
	"github.com/dpup/lighthouse/internal/services"
	"github.com/dpup/lighthouse/internal/store"
)

func main() {
	// Local overrides for development; deployed instances use real env vars.
	_ = godotenv.Load()

	appConfig := loadConfig()

	// Open persistence and ensure schema before anything touches it.
	db, err := store.Open(appConfig.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// External API clients
	tomtomClient := tomtom.NewClient(appConfig.Traffic.APIKey)
	nwsClient := nws.NewClient()

	// Services
	settingsResolver := services.NewSettingsResolver(db, appConfig)
	trafficService := services.NewTrafficService(tomtomClient, nwsClient, db, settingsResolver, appConfig.Traffic.APIKey)
	alertsService := services.NewAlertsService(nwsClient, db, settingsResolver)

	log.Printf("Lighthouse commute server starting")
	log.Printf("Routes configured: %d", len(appConfig.Traffic.Routes))

	periodicRefresh := services.NewPeriodicRefreshService(trafficService, alertsService, appConfig.Traffic.RefreshInterval)
	if err := periodicRefresh.StartPeriodicRefresh(context.Background()); err != nil {
		log.Printf("Failed to start periodic refresh: %v", err)
	}

	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/commutes", commutesHandler(db)),
		prefab.WithHTTPHandlerFunc("/api/v1/alerts", alertsHandler(db)),
	)

	// Blocks until shutdown.
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system. Sections come
// from prefab.yaml and environment variables with the PF__ prefix; missing
// sections keep the defaults.
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	if err := prefab.Config.Unmarshal("traffic", &appConfig.Traffic); err != nil {
		log.Fatalf("Failed to unmarshal traffic section: %v", err)
	}
	if err := prefab.Config.Unmarshal("location", &appConfig.Location); err != nil {
		log.Fatalf("Failed to unmarshal location section: %v", err)
	}
	if err := prefab.Config.Unmarshal("storage", &appConfig.Storage); err != nil {
		log.Fatalf("Failed to unmarshal storage section: %v", err)
	}

	return appConfig
}

// commutesHandler serves the persisted commute route records
func commutesHandler(db *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes, err := db.ListRoutes(r.Context())
		if err != nil {
			http.Error(w, "failed to load routes", http.StatusInternalServerError)
			slog.Error("Failed to list routes", "error", err)
			return
		}
		writeJSON(w, map[string]any{"routes": routes})
	}
}

// alertsHandler serves the currently active weather alerts
func alertsHandler(db *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := db.ListActiveAlerts(r.Context(), time.Now())
		if err != nil {
			http.Error(w, "failed to load alerts", http.StatusInternalServerError)
			slog.Error("Failed to list alerts", "error", err)
			return
		}
		writeJSON(w, map[string]any{"alerts": alerts})
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>lighthouse</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">lighthouse</span>

Commute route intelligence: current durations, delays, viable
alternatives and the roads that distinguish them, refreshed on a
schedule from live traffic data.

<span class="header">API Endpoints:</span>

  <a href="/api/v1/commutes">GET /api/v1/commutes</a>   - Monitored commute routes with latest estimates
  <a href="/api/v1/alerts">GET /api/v1/alerts</a>     - Active weather alerts for the monitored area

<span class="header">Data Sources:</span>
  • TomTom Search/Routing/Traffic APIs  - Geocoding, travel times, incidents
  • National Weather Service API        - Forecast zones and active alerts
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
