// Package config loads the YAML configuration shared by the backend and the
// device host, with LIFTLOG_* environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Device    DeviceConfig    `yaml:"device"`
	Workout   WorkoutConfig   `yaml:"workout"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
	// Owner is the login all backend data is stored under.
	Owner string `yaml:"owner"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DeviceConfig configures the device host that runs the live engine.
type DeviceConfig struct {
	BackendURL  string `yaml:"backend_url"`
	APIKey      string `yaml:"api_key"`
	StateDir    string `yaml:"state_dir"`
	Listen      string `yaml:"listen"`
	UserID      int    `yaml:"user_id"`
	CatalogPath string `yaml:"catalog_path"`
}

// WorkoutConfig holds user preferences consulted by the engine.
type WorkoutConfig struct {
	RestTimerEnabled     bool `yaml:"rest_timer_enabled"`
	RestSeconds          int  `yaml:"rest_seconds"`
	IncludePayloadVolume bool `yaml:"include_payload_volume"`
	Autosave             bool `yaml:"autosave"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for fields absent from the file.
func Default() *Config {
	stateDir := ".liftlog"
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".liftlog")
	}
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable"},
		Auth:     AuthConfig{Owner: "owner"},
		Tailscale: TailscaleConfig{
			Hostname: "liftlog",
			StateDir: "tsnet-state",
		},
		Device: DeviceConfig{
			StateDir: stateDir,
			Listen:   "127.0.0.1:8090",
			UserID:   1,
		},
		Workout: WorkoutConfig{
			RestTimerEnabled: true,
			RestSeconds:      90,
			Autosave:         true,
		},
		Telemetry: TelemetryConfig{Endpoint: "localhost:4317", Insecure: true},
		Log:       LogConfig{Level: "info"},
	}
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// SlogLevel maps the configured level name to a slog level. Unknown names mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadServer reads the backend configuration and validates the fields the
// backend needs.
func LoadServer(path string) (*Config, error) {
	cfg, err := load(path, true)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateServer(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadDevice reads the device host configuration. An empty path uses the
// defaults plus environment overrides.
func LoadDevice(path string) (*Config, error) {
	cfg, err := load(path, path != "")
	if err != nil {
		return nil, err
	}
	if err := cfg.validateDevice(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func load(path string, required bool) (*Config, error) {
	cfg := Default()

	if required {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies LIFTLOG_ environment variables:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_AUTH_API_KEY, LIFTLOG_TAILSCALE_ENABLED, LIFTLOG_TAILSCALE_HOSTNAME,
//	LIFTLOG_BACKEND_URL, LIFTLOG_DEVICE_API_KEY, LIFTLOG_STATE_DIR, LIFTLOG_LISTEN,
//	LIFTLOG_USER_ID, LIFTLOG_CATALOG_PATH, LIFTLOG_REST_SECONDS,
//	LIFTLOG_REST_TIMER_ENABLED, LIFTLOG_INCLUDE_PAYLOAD_VOLUME, LIFTLOG_AUTOSAVE,
//	LIFTLOG_TELEMETRY_ENABLED, LIFTLOG_TELEMETRY_ENDPOINT, LIFTLOG_LOG_LEVEL
func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	flag := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("LIFTLOG_SERVER_HOST", &cfg.Server.Host)
	num("LIFTLOG_SERVER_PORT", &cfg.Server.Port)
	str("LIFTLOG_DB_HOST", &cfg.Database.Host)
	num("LIFTLOG_DB_PORT", &cfg.Database.Port)
	str("LIFTLOG_DB_NAME", &cfg.Database.Name)
	str("LIFTLOG_DB_USER", &cfg.Database.User)
	str("LIFTLOG_DB_PASSWORD", &cfg.Database.Password)
	str("LIFTLOG_DB_SSLMODE", &cfg.Database.SSLMode)
	str("LIFTLOG_AUTH_API_KEY", &cfg.Auth.APIKey)
	flag("LIFTLOG_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	str("LIFTLOG_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)

	str("LIFTLOG_BACKEND_URL", &cfg.Device.BackendURL)
	str("LIFTLOG_DEVICE_API_KEY", &cfg.Device.APIKey)
	str("LIFTLOG_STATE_DIR", &cfg.Device.StateDir)
	str("LIFTLOG_LISTEN", &cfg.Device.Listen)
	num("LIFTLOG_USER_ID", &cfg.Device.UserID)
	str("LIFTLOG_CATALOG_PATH", &cfg.Device.CatalogPath)

	num("LIFTLOG_REST_SECONDS", &cfg.Workout.RestSeconds)
	flag("LIFTLOG_REST_TIMER_ENABLED", &cfg.Workout.RestTimerEnabled)
	flag("LIFTLOG_INCLUDE_PAYLOAD_VOLUME", &cfg.Workout.IncludePayloadVolume)
	flag("LIFTLOG_AUTOSAVE", &cfg.Workout.Autosave)

	flag("LIFTLOG_TELEMETRY_ENABLED", &cfg.Telemetry.Enabled)
	str("LIFTLOG_TELEMETRY_ENDPOINT", &cfg.Telemetry.Endpoint)
	str("LIFTLOG_LOG_LEVEL", &cfg.Log.Level)
}

func (c *Config) validateServer() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return c.validateCommon()
}

func (c *Config) validateDevice() error {
	if c.Device.BackendURL == "" {
		return fmt.Errorf("device.backend_url is required")
	}
	if c.Device.StateDir == "" {
		return fmt.Errorf("device.state_dir is required")
	}
	if c.Device.UserID <= 0 {
		return fmt.Errorf("device.user_id must be positive")
	}
	if c.Workout.RestSeconds <= 0 {
		return fmt.Errorf("workout.rest_seconds must be positive")
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}
