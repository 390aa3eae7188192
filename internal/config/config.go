// Package config loads service configuration from an optional YAML/JSON file
// overlaid with ROUTEOPT_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes environment overrides. Nested keys use "__":
// ROUTEOPT_DATABASE__DSN sets database.dsn.
const EnvPrefix = "ROUTEOPT_"

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Sessions  SessionsConfig  `json:"sessions"`
	Streets   StreetsConfig   `json:"streets"`
	Optimizer OptimizerConfig `json:"optimizer"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "pgx".
	Driver      string `json:"driver"`
	DSN         string `json:"dsn"`
	SeedPath    string `json:"seed_path"`
	SeedOnStart bool   `json:"seed_on_start"`
}

type SessionsConfig struct {
	// Backend is "sql" (same database as orders) or "redis".
	Backend       string        `json:"backend"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	TTL           time.Duration `json:"ttl"`
}

type StreetsConfig struct {
	// Provider is "osrm" or "straight".
	Provider string        `json:"provider"`
	OSRMURL  string        `json:"osrm_url"`
	Profile  string        `json:"profile"`
	Timeout  time.Duration `json:"timeout"`
	Retries  int           `json:"retries"`
}

type DepotConfig struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type OptimizerConfig struct {
	Strategy               string             `json:"strategy"`
	VehicleConsumptionRate float64            `json:"vehicle_consumption_rate"`
	TimeOfDayFactor        float64            `json:"time_of_day_factor"`
	MaxTwoOptSweeps        int                `json:"max_two_opt_sweeps"`
	DelayThresholdMinutes  float64            `json:"delay_threshold_minutes"`
	Depot                  DepotConfig        `json:"depot"`
	TrafficZones           map[string]float64 `json:"traffic_zones"`
}

// Load reads the config file at path (optional; empty skips it), applies
// environment overrides, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("load config: unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config: read %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load config: env overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("load config: decode: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":" + Get("PORT", "8080")
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/app.db"
	}
	if c.Database.SeedPath == "" {
		c.Database.SeedPath = "data/seeds/orders.json"
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "sql"
	}
	if c.Sessions.RedisAddr == "" {
		c.Sessions.RedisAddr = "localhost:6379"
	}
	if c.Streets.Provider == "" {
		c.Streets.Provider = "osrm"
	}
	if c.Streets.Profile == "" {
		c.Streets.Profile = "driving"
	}
	if c.Streets.Timeout == 0 {
		c.Streets.Timeout = 10 * time.Second
	}
	if c.Streets.Retries == 0 {
		c.Streets.Retries = 4
	}
	if c.Optimizer.Strategy == "" {
		c.Optimizer.Strategy = "hybrid"
	}
	if c.Optimizer.Depot == (DepotConfig{}) {
		c.Optimizer.Depot = DepotConfig{Lat: 13.0827, Lng: 80.2707}
	}
	if c.Optimizer.TrafficZones == nil {
		c.Optimizer.TrafficZones = map[string]float64{
			"downtown": 0.8,
			"midtown":  0.5,
			"suburbs":  0.2,
		}
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("database.driver must be sqlite or pgx, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Sessions.Backend {
	case "sql", "redis":
	default:
		return fmt.Errorf("sessions.backend must be sql or redis, got %q", c.Sessions.Backend)
	}
	if c.Sessions.TTL < 0 {
		return errors.New("sessions.ttl must not be negative")
	}
	switch c.Streets.Provider {
	case "osrm", "straight":
	default:
		return fmt.Errorf("streets.provider must be osrm or straight, got %q", c.Streets.Provider)
	}
	if c.Streets.Retries < 0 {
		return errors.New("streets.retries must not be negative")
	}
	if c.Optimizer.VehicleConsumptionRate < 0 || c.Optimizer.TimeOfDayFactor < 0 {
		return errors.New("optimizer rate and factor must not be negative")
	}
	if c.Optimizer.MaxTwoOptSweeps < 0 || c.Optimizer.DelayThresholdMinutes < 0 {
		return errors.New("optimizer sweeps and delay threshold must not be negative")
	}
	for zone, congestion := range c.Optimizer.TrafficZones {
		if congestion < 0 || congestion > 1 {
			return fmt.Errorf("optimizer.traffic_zones.%s: congestion must be within [0, 1], got %v", zone, congestion)
		}
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Get returns the environment variable key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
