// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Boundaries BoundariesConfig `yaml:"boundaries" mapstructure:"boundaries"`
	Fault      FaultConfig      `yaml:"fault" mapstructure:"fault"`
	Parse      ParseConfig      `yaml:"parse" mapstructure:"parse"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// BoundariesConfig configures the administrative boundary resolver.
type BoundariesConfig struct {
	// Driver selects the resolver backend: "file" (GeoJSON snapshot) or
	// "postgres" (PostGIS ST_Contains).
	Driver      string   `yaml:"driver" mapstructure:"driver"`
	Dir         string   `yaml:"dir" mapstructure:"dir"`
	Collections []string `yaml:"collections" mapstructure:"collections"`
	DatabaseURL string   `yaml:"database_url" mapstructure:"database_url"`
}

// FaultConfig locates the fault-line reference geometry.
type FaultConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ParseConfig sets ingestion defaults.
type ParseConfig struct {
	Convention string `yaml:"convention" mapstructure:"convention"`
}

// StoreConfig configures batch snapshot persistence.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FetchConfig configures reference-data downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITERISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("boundaries.driver", "file")
	v.SetDefault("boundaries.dir", "data/boundaries")
	v.SetDefault("boundaries.collections", []string{
		"metro-manila", "rizal", "bulacan", "cavite", "laguna",
	})
	v.SetDefault("fault.path", "data/west-valley-fault.geojson")
	v.SetDefault("parse.convention", "canonical")
	v.SetDefault("store.path", "siterisk.db")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.user_agent", "siterisk-cli (+https://github.com/gridsight/siterisk-cli)")
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
