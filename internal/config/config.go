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
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Dedup  DedupConfig  `yaml:"dedup" mapstructure:"dedup"`
	Hash   HashConfig   `yaml:"hash" mapstructure:"hash"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MatchConfig holds the compatibility-scoring weights and tolerances.
// Weights are fractions of the total score and sum to 1.
type MatchConfig struct {
	CategoryWeight float64 `yaml:"category_weight" mapstructure:"category_weight"`
	LocationWeight float64 `yaml:"location_weight" mapstructure:"location_weight"`
	PriceWeight    float64 `yaml:"price_weight" mapstructure:"price_weight"`
	RoomsWeight    float64 `yaml:"rooms_weight" mapstructure:"rooms_weight"`
	AreaWeight     float64 `yaml:"area_weight" mapstructure:"area_weight"`
	OtherWeight    float64 `yaml:"other_weight" mapstructure:"other_weight"`

	// ValidityThreshold is the minimum total score at which a pair counts
	// as an actionable match.
	ValidityThreshold int `yaml:"validity_threshold" mapstructure:"validity_threshold"`

	// SearchRadiusKm bounds the GPS-distance location variant: the location
	// sub-score decays 100→70 inside the radius and 70→0 at twice the radius.
	SearchRadiusKm float64 `yaml:"search_radius_km" mapstructure:"search_radius_km"`

	// Concurrency caps the engine's batch fan-out; 0 scores sequentially.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// DedupConfig holds the duplicate-detection points and thresholds.
type DedupConfig struct {
	LocationPoints int `yaml:"location_points" mapstructure:"location_points"`
	PricePoints    int `yaml:"price_points" mapstructure:"price_points"`
	AreaPoints     int `yaml:"area_points" mapstructure:"area_points"`
	RoomsPoints    int `yaml:"rooms_points" mapstructure:"rooms_points"`
	ImagePoints    int `yaml:"image_points" mapstructure:"image_points"`

	// PriceTolerancePct and AreaTolerancePct are symmetric percentage
	// deviations measured against the average of the two values.
	PriceTolerancePct float64 `yaml:"price_tolerance_pct" mapstructure:"price_tolerance_pct"`
	AreaTolerancePct  float64 `yaml:"area_tolerance_pct" mapstructure:"area_tolerance_pct"`

	// DuplicateThreshold is the minimum similarity score that flags a pair
	// for manual review.
	DuplicateThreshold int `yaml:"duplicate_threshold" mapstructure:"duplicate_threshold"`
}

// HashConfig configures perceptual image hashing.
type HashConfig struct {
	// Size is the hash dimension per axis; 16 yields a 256-bit fingerprint.
	Size int `yaml:"size" mapstructure:"size"`

	// HammingThreshold is the maximum bit distance at which two hashes are
	// considered the same image.
	HammingThreshold int `yaml:"hamming_threshold" mapstructure:"hamming_threshold"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("match-cli")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.match-cli")

	// Environment
	v.SetEnvPrefix("MATCHCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "match-cli.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("match.category_weight", 0.20)
	v.SetDefault("match.location_weight", 0.25)
	v.SetDefault("match.price_weight", 0.20)
	v.SetDefault("match.rooms_weight", 0.10)
	v.SetDefault("match.area_weight", 0.10)
	v.SetDefault("match.other_weight", 0.15)
	v.SetDefault("match.validity_threshold", 70)
	v.SetDefault("match.search_radius_km", 5.0)
	v.SetDefault("match.concurrency", 0)
	v.SetDefault("dedup.location_points", 30)
	v.SetDefault("dedup.price_points", 25)
	v.SetDefault("dedup.area_points", 20)
	v.SetDefault("dedup.rooms_points", 15)
	v.SetDefault("dedup.image_points", 10)
	v.SetDefault("dedup.price_tolerance_pct", 5.0)
	v.SetDefault("dedup.area_tolerance_pct", 10.0)
	v.SetDefault("dedup.duplicate_threshold", 85)
	v.SetDefault("hash.size", 16)
	v.SetDefault("hash.hamming_threshold", 10)

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
