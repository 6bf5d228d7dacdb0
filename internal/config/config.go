package config

import (
	"time"
)

// Config represents the complete server configuration. Sections are
// unmarshalled individually from Prefab's config (prefab.yaml plus PF__
// environment variables).
type Config struct {
	Traffic  TrafficConfig  `yaml:"traffic"`
	Location LocationConfig `yaml:"location"`
	Storage  StorageConfig  `yaml:"storage"`
}

// TrafficConfig holds commute monitoring configuration
type TrafficConfig struct {
	RefreshInterval time.Duration  `yaml:"refresh_interval"`
	APIKey          string         `yaml:"api_key"`
	Routes          []CommuteRoute `yaml:"routes"`
	Options         TrafficOptions `yaml:"options"`
}

// CommuteRoute is a configured origin/destination pair. Endpoints may be
// "lat,lng" coordinate strings or free-form addresses.
type CommuteRoute struct {
	Name        string `yaml:"name" json:"name"`
	Origin      string `yaml:"origin" json:"origin"`
	Destination string `yaml:"destination" json:"destination"`
}

// TrafficOptions tunes alternative-route handling
type TrafficOptions struct {
	MaxAlternatives   int `yaml:"max_alternatives" json:"max_alternatives"`
	TimeMarginPercent int `yaml:"time_margin_percent" json:"time_margin_percent"`
}

// LocationConfig identifies the home area used for weather zone lookups and
// alert queries when no persisted settings exist
type LocationConfig struct {
	Name         string  `yaml:"name"`
	Lat          float64 `yaml:"lat"`
	Lon          float64 `yaml:"lon"`
	NWSZoneCodes string  `yaml:"nws_zone_codes"`
}

// StorageConfig holds persistence settings
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Traffic: TrafficConfig{
			RefreshInterval: 15 * time.Minute,
			Options: TrafficOptions{
				MaxAlternatives:   3,
				TimeMarginPercent: 15,
			},
		},
		Location: LocationConfig{
			Name:         "New York, NY",
			Lat:          40.7128,
			Lon:          -74.0060,
			NWSZoneCodes: "NYZ072,NYZ073",
		},
		Storage: StorageConfig{
			DBPath: "data/lighthouse.db",
		},
	}
}
