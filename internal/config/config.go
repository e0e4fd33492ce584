package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// postgres
	DBHost string `toml:"db_host"`
	DBPort string `toml:"db_port"`
	DBName string `toml:"db_name"`
	// telemetry
	TracingEnabled    bool   `toml:"tracing_enabled"`
	PrometheusPort    int    `toml:"prometheus_port"`
	MetricsNamespace  string `toml:"metrics_namespace"`
	MetricsSubsystem  string `toml:"metrics_subsystem"`
	HandlerRequestLog bool   `toml:"handler_request_log"`

	Engine Engine `toml:"engine"`
}

// Engine holds the tunables of the vector engines, so behavior is
// reproducible in tests without environment coupling.
type Engine struct {
	// lookback window for the metric collaborators, in days
	LookbackDays int `toml:"lookback_days"`
	// blend weights for the final scalar, must sum to 1.0
	StrengthWeight float64 `toml:"strength_weight"`
	ActivityWeight float64 `toml:"activity_weight"`
	// recommendation cache
	RecommendationCacheSizeBytes  int `toml:"recommendation_cache_size_bytes"`
	RecommendationCacheTTLSeconds int `toml:"recommendation_cache_ttl_seconds"`
}

func (e Engine) WithDefaults() Engine {
	if e.LookbackDays <= 0 {
		e.LookbackDays = 7
	}
	if e.StrengthWeight == 0 && e.ActivityWeight == 0 {
		e.StrengthWeight = 0.7
		e.ActivityWeight = 0.3
	}
	if e.RecommendationCacheSizeBytes <= 0 {
		e.RecommendationCacheSizeBytes = 10 * 1024 * 1024
	}
	if e.RecommendationCacheTTLSeconds <= 0 {
		e.RecommendationCacheTTLSeconds = 300
	}
	return e
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(path, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}

	cfg.Environment = env
	cfg.Engine = cfg.Engine.WithDefaults()
	return cfg, nil
}
