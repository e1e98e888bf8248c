// Package scanconfig builds the analyzer's runtime configuration: defaults
// from the environment, optionally overridden by a YAML file. Every
// component that needs configuration takes a slice of this struct rather
// than reading the environment itself.
package scanconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WhoisRateLimit is the {capacity, period_seconds} pair spec.md §6.4 uses
// for the port-43 bucket.
type WhoisRateLimit struct {
	Capacity      int `yaml:"capacity"`
	PeriodSeconds int `yaml:"period_seconds"`
}

// RedisConfig configures the go-redis client shared by the rediscache store
// and the distributed token bucket.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig configures the discovery-event publisher.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Config is the full, immutable-after-load configuration record.
// cmd/domain-analyzer loads it once and passes the relevant values on to the
// catalog, orchestrator, and protocol clients.
type Config struct {
	ProfilesDefault string `yaml:"profiles_default"`

	Network struct {
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		Concurrency     int           `yaml:"concurrency"`
		PerDomainBudget time.Duration `yaml:"per_domain_budget"`
	} `yaml:"network"`

	Checks struct {
		Whois struct {
			Server      string  `yaml:"server"`
			Port        int     `yaml:"port"`
			RateLimit   float64 `yaml:"rate_limit"`
			QuickMode   bool    `yaml:"quick_mode"`
			WhoisServer string  `yaml:"whois_server"`
			WhoisPort   int     `yaml:"whois_port"`

			WhoisTimeout   time.Duration  `yaml:"whois_timeout"`
			WhoisRateLimit WhoisRateLimit `yaml:"whois_rate_limit"`
		} `yaml:"whois"`
	} `yaml:"checks"`

	RedirectCapture struct {
		KeepSubdomainsFor    []string `yaml:"keep_subdomains_for"`
		IgnoreCommonServices []string `yaml:"ignore_common_services"`
	} `yaml:"redirect_capture"`

	Redis    RedisConfig `yaml:"redis"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Kafka KafkaConfig `yaml:"kafka"`

	AdminAddr string `yaml:"admin_addr"`
}

// FromEnv builds a Config from environment variables, falling back to the
// defaults spec.md documents (DAS/WHOIS endpoints, rate ceilings, timeouts).
func FromEnv() Config {
	var cfg Config

	cfg.ProfilesDefault = getEnvOr("DOMAIN_ANALYZER_PROFILES_DEFAULT", "standard")

	cfg.Network.RequestTimeout = getEnvDurationOr("DOMAIN_ANALYZER_REQUEST_TIMEOUT", 5*time.Second)
	cfg.Network.Concurrency = getEnvIntOr("DOMAIN_ANALYZER_CONCURRENCY", 10)
	cfg.Network.PerDomainBudget = getEnvDurationOr("DOMAIN_ANALYZER_PER_DOMAIN_BUDGET", 30*time.Second)

	cfg.Checks.Whois.Server = getEnvOr("DOMAIN_ANALYZER_DAS_SERVER", "das.domreg.lt")
	cfg.Checks.Whois.Port = getEnvIntOr("DOMAIN_ANALYZER_DAS_PORT", 4343)
	cfg.Checks.Whois.RateLimit = getEnvFloatOr("DOMAIN_ANALYZER_DAS_RATE_LIMIT", 4.0)
	cfg.Checks.Whois.QuickMode = os.Getenv("DOMAIN_ANALYZER_WHOIS_QUICK_MODE") == "true"

	cfg.Checks.Whois.WhoisServer = getEnvOr("DOMAIN_ANALYZER_WHOIS_SERVER", "whois.domreg.lt")
	cfg.Checks.Whois.WhoisPort = getEnvIntOr("DOMAIN_ANALYZER_WHOIS_PORT", 43)
	cfg.Checks.Whois.WhoisTimeout = getEnvDurationOr("DOMAIN_ANALYZER_WHOIS_TIMEOUT", 5*time.Second)
	cfg.Checks.Whois.WhoisRateLimit = WhoisRateLimit{Capacity: 100, PeriodSeconds: 1800}

	cfg.RedirectCapture.KeepSubdomainsFor = []string{".gov.lt", ".lrv.lt", ".edu.lt", ".mil.lt"}
	cfg.RedirectCapture.IgnoreCommonServices = nil

	cfg.Redis.URL = os.Getenv("DOMAIN_ANALYZER_REDIS_URL")
	cfg.Redis.PoolSize = getEnvIntOr("DOMAIN_ANALYZER_REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getEnvIntOr("DOMAIN_ANALYZER_REDIS_MIN_IDLE", 2)
	cfg.Redis.DialTimeout = getEnvDurationOr("DOMAIN_ANALYZER_REDIS_DIAL_TIMEOUT", 2*time.Second)
	cfg.Redis.ReadTimeout = getEnvDurationOr("DOMAIN_ANALYZER_REDIS_READ_TIMEOUT", time.Second)
	cfg.Redis.WriteTimeout = getEnvDurationOr("DOMAIN_ANALYZER_REDIS_WRITE_TIMEOUT", time.Second)

	cfg.Postgres.DSN = os.Getenv("DOMAIN_ANALYZER_POSTGRES_DSN")

	cfg.Kafka.Brokers = getEnvListOr("DOMAIN_ANALYZER_KAFKA_BROKERS", nil)
	cfg.Kafka.Topic = getEnvOr("DOMAIN_ANALYZER_KAFKA_TOPIC", "domain-analyzer.discoveries")

	cfg.AdminAddr = getEnvOr("DOMAIN_ANALYZER_ADMIN_ADDR", ":8080")

	return cfg
}

// Load builds a Config starting from FromEnv() defaults and overlays
// whatever keys the YAML file at path sets explicitly.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}

func getEnvFloatOr(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var f float64
	if _, err := fmt.Sscanf(v, "%f", &f); err != nil {
		return fallback
	}
	return f
}

func getEnvDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getEnvListOr splits a comma-separated env var into a trimmed, non-empty
// slice, falling back if the variable is unset.
func getEnvListOr(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
