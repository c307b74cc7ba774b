package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration parsed from an optional YAML file and
// environment variables. Environment variables win over the file.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	APIBaseURL      string        `yaml:"api_base_url"`
	APITimeout      time.Duration `yaml:"api_timeout"`
	StoreDriver     string        `yaml:"store_driver"`
	StoreDSN        string        `yaml:"store_dsn"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	StoreMaxConns   int           `yaml:"store_max_conns"`
	StoreMinConns   int           `yaml:"store_min_conns"`
	StoreConnIdle   time.Duration `yaml:"store_conn_idle"`
	StoreConnLife   time.Duration `yaml:"store_conn_lifetime"`
	SlotRetention   time.Duration `yaml:"slot_retention"`
	SlotSweep       time.Duration `yaml:"slot_sweep"`
	CartStorageKey  string        `yaml:"cart_storage_key"`
	SessionIdleTTL  time.Duration `yaml:"session_idle_ttl"`
	SessionSweep    time.Duration `yaml:"session_sweep"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	AuthRatePerMin  int           `yaml:"auth_rate_per_minute"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		APIBaseURL:      "http://localhost:3000/api",
		APITimeout:      10 * time.Second,
		StoreDriver:     "sqlite",
		StoreDSN:        "storefront.db",
		StoreMaxConns:   10,
		StoreConnIdle:   5 * time.Minute,
		StoreConnLife:   30 * time.Minute,
		SlotRetention:   30 * 24 * time.Hour,
		SlotSweep:       time.Hour,
		CartStorageKey:  "shopping_cart",
		SessionIdleTTL:  30 * time.Minute,
		SessionSweep:    time.Minute,
		AuthRatePerMin:  30,
		ShutdownTimeout: 10 * time.Second,
		AllowedOrigins:  []string{"http://localhost:5173"},
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		cfg, err = FromFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
	}
	return FromEnv(cfg), nil
}

// FromFile overlays the YAML document at path onto base.
func FromFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overrides base with environment variables.
func FromEnv(base Config) Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", base.HTTPAddr),
		APIBaseURL:      strings.TrimRight(envOrDefault("API_BASE_URL", base.APIBaseURL), "/"),
		APITimeout:      envDuration("API_TIMEOUT_SECONDS", base.APITimeout),
		StoreDriver:     strings.ToLower(envOrDefault("STORE_DRIVER", base.StoreDriver)),
		StoreDSN:        envOrDefault("STORE_DSN", base.StoreDSN),
		RedisPassword:   envOrDefault("REDIS_PASSWORD", base.RedisPassword),
		RedisDB:         envInt("REDIS_DB", base.RedisDB),
		StoreMaxConns:   envInt("STORE_MAX_CONNS", base.StoreMaxConns),
		StoreMinConns:   envInt("STORE_MIN_CONNS", base.StoreMinConns),
		StoreConnIdle:   envDuration("STORE_CONN_IDLE_SECONDS", base.StoreConnIdle),
		StoreConnLife:   envDuration("STORE_CONN_LIFETIME_SECONDS", base.StoreConnLife),
		SlotRetention:   envDuration("SLOT_RETENTION_SECONDS", base.SlotRetention),
		SlotSweep:       envDuration("SLOT_SWEEP_SECONDS", base.SlotSweep),
		CartStorageKey:  envOrDefault("CART_STORAGE_KEY", base.CartStorageKey),
		SessionIdleTTL:  envDuration("SESSION_IDLE_TIMEOUT_SECONDS", base.SessionIdleTTL),
		SessionSweep:    envDuration("SESSION_SWEEP_SECONDS", base.SessionSweep),
		CookieSecure:    envBool("SESSION_COOKIE_SECURE", base.CookieSecure),
		AuthRatePerMin:  envInt("AUTH_RATE_PER_MINUTE", base.AuthRatePerMin),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", base.ShutdownTimeout),
		AllowedOrigins:  envList("ALLOWED_ORIGINS", base.AllowedOrigins),
		LogLevel:        envOrDefault("LOG_LEVEL", base.LogLevel),
		LogFormat:       envOrDefault("LOG_FORMAT", base.LogFormat),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
