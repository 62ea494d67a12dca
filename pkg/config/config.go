package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides.
// PLANE_TRACKER_PROVIDER_BASE_URL overrides provider.base_url.
const EnvPrefix = "PLANE_TRACKER"

// Config represents the complete application configuration.
// It is loaded from an optional JSON or YAML file plus environment overrides.
type Config struct {
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`
	Query    QueryConfig    `json:"query" mapstructure:"query"`
	Display  DisplayConfig  `json:"display" mapstructure:"display"`
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// ProviderConfig contains the state vector provider settings.
type ProviderConfig struct {
	// BaseURL is the OpenSky REST API root (default: "https://opensky-network.org/api")
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds a single provider request
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// Timeout returns TimeoutSeconds as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// QueryConfig contains the initial query inputs and their bounds.
type QueryConfig struct {
	// DefaultLatitude in decimal degrees (-90 to +90)
	DefaultLatitude float64 `json:"default_latitude" mapstructure:"default_latitude"`

	// DefaultLongitude in decimal degrees (-180 to +180)
	DefaultLongitude float64 `json:"default_longitude" mapstructure:"default_longitude"`

	// DefaultRadiusMiles is the initial search radius
	DefaultRadiusMiles float64 `json:"default_radius_miles" mapstructure:"default_radius_miles"`

	// MinRadiusMiles and MaxRadiusMiles bound the radius a user may select
	MinRadiusMiles float64 `json:"min_radius_miles" mapstructure:"min_radius_miles"`
	MaxRadiusMiles float64 `json:"max_radius_miles" mapstructure:"max_radius_miles"`

	// RefreshIntervalSeconds is how often interactive hosts re-run the query.
	// 0 disables automatic refresh.
	RefreshIntervalSeconds int `json:"refresh_interval_seconds" mapstructure:"refresh_interval_seconds"`
}

// RefreshInterval returns RefreshIntervalSeconds as a duration.
func (q QueryConfig) RefreshInterval() time.Duration {
	return time.Duration(q.RefreshIntervalSeconds) * time.Second
}

// ClampRadius limits r to [MinRadiusMiles, MaxRadiusMiles].
func (q QueryConfig) ClampRadius(r float64) float64 {
	if r < q.MinRadiusMiles {
		return q.MinRadiusMiles
	}
	if r > q.MaxRadiusMiles {
		return q.MaxRadiusMiles
	}
	return r
}

// DisplayConfig contains map rendering settings.
type DisplayConfig struct {
	// MapStyle is the basemap style URL handed to the map renderer
	MapStyle string `json:"map_style" mapstructure:"map_style"`

	// Zoom and Pitch of the initial map view
	Zoom  float64 `json:"zoom" mapstructure:"zoom"`
	Pitch float64 `json:"pitch" mapstructure:"pitch"`

	// PointColor is the RGBA fill of each aircraft point
	PointColor []int `json:"point_color" mapstructure:"point_color"`

	// PointRadius is the point radius in meters
	PointRadius float64 `json:"point_radius" mapstructure:"point_radius"`

	// MapboxToken is the access token for mapbox:// styles (web map only).
	// Keep it out of config files; set PLANE_TRACKER_DISPLAY_MAPBOX_TOKEN.
	MapboxToken string `json:"mapbox_token,omitempty" mapstructure:"mapbox_token"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port" mapstructure:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host" mapstructure:"host"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// LoggingConfig controls log level, format and destination.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" mapstructure:"level"`

	// Format is json or text
	Format string `json:"format" mapstructure:"format"`

	// Output is stdout or file. Full-screen terminal hosts always log to a file.
	Output string `json:"output" mapstructure:"output"`

	// Dir holds rotated log files when Output is file
	Dir string `json:"dir" mapstructure:"dir"`

	// MaxSizeMB and MaxBackups control rotation
	MaxSizeMB  int `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int `json:"max_backups" mapstructure:"max_backups"`
}

// Load reads configuration from a JSON or YAML file and the environment.
// A missing file (or empty path) yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.timeout_seconds", d.Provider.TimeoutSeconds)

	v.SetDefault("query.default_latitude", d.Query.DefaultLatitude)
	v.SetDefault("query.default_longitude", d.Query.DefaultLongitude)
	v.SetDefault("query.default_radius_miles", d.Query.DefaultRadiusMiles)
	v.SetDefault("query.min_radius_miles", d.Query.MinRadiusMiles)
	v.SetDefault("query.max_radius_miles", d.Query.MaxRadiusMiles)
	v.SetDefault("query.refresh_interval_seconds", d.Query.RefreshIntervalSeconds)

	v.SetDefault("display.map_style", d.Display.MapStyle)
	v.SetDefault("display.zoom", d.Display.Zoom)
	v.SetDefault("display.pitch", d.Display.Pitch)
	v.SetDefault("display.point_color", d.Display.PointColor)
	v.SetDefault("display.point_radius", d.Display.PointRadius)
	v.SetDefault("display.mapbox_token", d.Display.MapboxToken)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
}

// Validate checks that configuration values are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Provider.BaseURL == "" {
		errs = append(errs, "provider.base_url is required")
	}
	if c.Provider.TimeoutSeconds <= 0 {
		errs = append(errs, "provider.timeout_seconds must be positive")
	}

	if c.Query.DefaultLatitude < -90 || c.Query.DefaultLatitude > 90 {
		errs = append(errs, fmt.Sprintf("query.default_latitude must be -90 to 90, got %g", c.Query.DefaultLatitude))
	}
	if c.Query.DefaultLongitude < -180 || c.Query.DefaultLongitude > 180 {
		errs = append(errs, fmt.Sprintf("query.default_longitude must be -180 to 180, got %g", c.Query.DefaultLongitude))
	}
	if c.Query.MinRadiusMiles <= 0 || c.Query.MaxRadiusMiles < c.Query.MinRadiusMiles {
		errs = append(errs, fmt.Sprintf("query radius bounds invalid: min %g, max %g", c.Query.MinRadiusMiles, c.Query.MaxRadiusMiles))
	} else if c.Query.DefaultRadiusMiles < c.Query.MinRadiusMiles || c.Query.DefaultRadiusMiles > c.Query.MaxRadiusMiles {
		errs = append(errs, fmt.Sprintf("query.default_radius_miles must be %g-%g, got %g",
			c.Query.MinRadiusMiles, c.Query.MaxRadiusMiles, c.Query.DefaultRadiusMiles))
	}
	if c.Query.RefreshIntervalSeconds < 0 {
		errs = append(errs, "query.refresh_interval_seconds must not be negative")
	}

	if len(c.Display.PointColor) != 4 {
		errs = append(errs, fmt.Sprintf("display.point_color must have 4 components, got %d", len(c.Display.PointColor)))
	} else {
		for _, comp := range c.Display.PointColor {
			if comp < 0 || comp > 255 {
				errs = append(errs, fmt.Sprintf("display.point_color component out of range: %d", comp))
				break
			}
		}
	}
	if c.Display.PointRadius <= 0 {
		errs = append(errs, "display.point_radius must be positive")
	}

	if c.Server.Port == "" {
		errs = append(errs, "server.port is required")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "file":
	default:
		errs = append(errs, fmt.Sprintf("logging.output must be stdout or file, got %q", c.Logging.Output))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:        "https://opensky-network.org/api",
			TimeoutSeconds: 10,
		},
		Query: QueryConfig{
			DefaultLatitude:        0.0,
			DefaultLongitude:       0.0,
			DefaultRadiusMiles:     10,
			MinRadiusMiles:         1,
			MaxRadiusMiles:         100,
			RefreshIntervalSeconds: 15, // anonymous OpenSky data updates every 10s
		},
		Display: DisplayConfig{
			MapStyle:    "mapbox://styles/mapbox/light-v9",
			Zoom:        8,
			Pitch:       0,
			PointColor:  []int{200, 30, 0, 160},
			PointRadius: 20000,
		},
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
