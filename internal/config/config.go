// Package config loads application configuration from config.yaml and
// TRAILPOST_* environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Foursquare FoursquareConfig `yaml:"foursquare" mapstructure:"foursquare"`
	Resolve    ResolveConfig    `yaml:"resolve" mapstructure:"resolve"`
	Cluster    ClusterConfig    `yaml:"cluster" mapstructure:"cluster"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the knowledge-base backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// FoursquareConfig holds Foursquare API settings.
type FoursquareConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// ResolveConfig configures location inference.
type ResolveConfig struct {
	MaxDistanceMeters float64 `yaml:"max_distance_meters" mapstructure:"max_distance_meters"`
	Limit             int     `yaml:"limit" mapstructure:"limit"`
	ProviderRPS       float64 `yaml:"provider_rps" mapstructure:"provider_rps"`
}

// ClusterConfig configures centroid re-estimation.
type ClusterConfig struct {
	MaxDistanceMeters float64 `yaml:"max_distance_meters" mapstructure:"max_distance_meters"`
	MinSamples        int     `yaml:"min_samples" mapstructure:"min_samples"`
	MaxHistory        int     `yaml:"max_history" mapstructure:"max_history"` // 0 = unbounded
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// Load reads configuration from config.yaml (optional) and the environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRAILPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("google.enabled", false)
	v.SetDefault("google.key", "")
	v.SetDefault("foursquare.enabled", false)
	v.SetDefault("foursquare.key", "")
	v.SetDefault("store.database_url", "trailpost.db")
	v.SetDefault("resolve.max_distance_meters", 100.0)
	v.SetDefault("resolve.limit", 5)
	v.SetDefault("resolve.provider_rps", 10.0)
	v.SetDefault("cluster.max_distance_meters", 30.0)
	v.SetDefault("cluster.min_samples", 2)
	v.SetDefault("cluster.max_history", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
