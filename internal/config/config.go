package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	ShutdownSec       int    `json:"shutdown_sec" yaml:"shutdown_sec"`
}

type Coinranking struct {
	APIKey                string `json:"api_key" yaml:"api_key"`
	BaseURL               string `json:"base_url" yaml:"base_url"`
	ReferenceCurrency     string `json:"reference_currency" yaml:"reference_currency"`
	TimeoutSec            int    `json:"timeout_sec" yaml:"timeout_sec"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	Burst                 int    `json:"burst" yaml:"burst"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
}

type Cache struct {
	// Backend is "memory", "redis" or "none".
	Backend       string `json:"backend" yaml:"backend"`
	TTLSeconds    int    `json:"ttl_sec" yaml:"ttl_sec"`
	StaleSeconds  int    `json:"stale_sec" yaml:"stale_sec"`
	MaxItems      int    `json:"max_items" yaml:"max_items"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
	KeyPrefix     string `json:"key_prefix" yaml:"key_prefix"`
}

type Breaker struct {
	Enabled             bool    `json:"enabled" yaml:"enabled"`
	ConsecutiveFailures uint32  `json:"consecutive_failures" yaml:"consecutive_failures"`
	MinRequests         uint32  `json:"min_requests" yaml:"min_requests"`
	FailureRatio        float64 `json:"failure_ratio" yaml:"failure_ratio"`
	OpenSec             int     `json:"open_sec" yaml:"open_sec"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// Views caps how many coins each screen asks for.
type Views struct {
	HomeLimit    int `json:"home_limit" yaml:"home_limit"`
	ListLimit    int `json:"list_limit" yaml:"list_limit"`
	HeatmapLimit int `json:"heatmap_limit" yaml:"heatmap_limit"`
}

type Config struct {
	Server      Server      `json:"server" yaml:"server"`
	Coinranking Coinranking `json:"coinranking" yaml:"coinranking"`
	Cache       Cache       `json:"cache" yaml:"cache"`
	Breaker     Breaker     `json:"breaker" yaml:"breaker"`
	Log         Log         `json:"log" yaml:"log"`
	Views       Views       `json:"views" yaml:"views"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, ShutdownSec: 5},
		Coinranking: Coinranking{
			BaseURL:              "https://coinranking1.p.rapidapi.com",
			ReferenceCurrency:    "yhjMzLPhuIDl",
			TimeoutSec:           10,
			MaxRequestsPerMinute: 30,
			Burst:                5,
		},
		Cache: Cache{
			Backend:      "memory",
			TTLSeconds:   30,
			StaleSeconds: 600,
			MaxItems:     1000,
			RedisAddr:    "localhost:6379",
			KeyPrefix:    "marketdash:",
		},
		Breaker: Breaker{
			Enabled:             true,
			ConsecutiveFailures: 3,
			MinRequests:         20,
			FailureRatio:        0.05,
			OpenSec:             60,
		},
		Log:   Log{Level: "info"},
		Views: Views{HomeLimit: 10, ListLimit: 100, HeatmapLimit: 50},
	}
}

// Load reads config from path (JSON, or YAML for .yaml/.yml). If path is empty
// it looks for config.json then config.yaml; a missing file yields defaults.
// Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, p := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New("config: redis backend needs redis_addr")
	}
	if c.Views.HomeLimit <= 0 || c.Views.ListLimit <= 0 || c.Views.HeatmapLimit <= 0 {
		return errors.New("config: view limits must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	// RAPIDAPI_KEY is accepted as a fallback name for the same secret.
	if v := os.Getenv("RAPIDAPI_KEY"); v != "" {
		cfg.Coinranking.APIKey = v
	}
	if v := os.Getenv("COINRANKING_API_KEY"); v != "" {
		cfg.Coinranking.APIKey = v
	}
	if v := os.Getenv("COINRANKING_BASE_URL"); v != "" {
		cfg.Coinranking.BaseURL = v
	}
	if v := os.Getenv("COINRANKING_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Coinranking.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("COINRANKING_BURST"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Coinranking.Burst = x
		}
	}
	if v := os.Getenv("COINRANKING_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Coinranking.MinRequestIntervalSec = x
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Cache.TTLSeconds = x
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("BREAKER_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Breaker.Enabled = true
		case "0", "false", "no", "n":
			cfg.Breaker.Enabled = false
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Log.Pretty = true
		case "0", "false", "no", "n":
			cfg.Log.Pretty = false
		}
	}
}
