// Package config loads the immutable configuration snapshot (Design Note "Global
// config" — no process-global mutable state) passed into every stage at startup.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the full configuration tree, covering both the ambient stack (log
// level, database, redis, api, provider, oracle) and the domain stack (§6).
type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	API        *APIConfig       `mapstructure:"api"`
	Database   *DatabaseConfig  `mapstructure:"database"`
	Redis      *RedisConfig     `mapstructure:"redis"`
	Provider   *ProviderConfig  `mapstructure:"provider"`
	Oracle     *OracleConfig    `mapstructure:"oracle"`
	WorkerPool *WorkerPoolConfig `mapstructure:"worker_pool"`
	Tracking   *TrackingConfig  `mapstructure:"tracking"`
	Scoring    *ScoringConfig   `mapstructure:"scoring"`
	Tiers      *TiersConfig     `mapstructure:"tiers"`
	Threshold  *ThresholdConfig `mapstructure:"threshold"`
	Consensus  *ConsensusConfig `mapstructure:"consensus"`
	Migration  *MigrationConfig `mapstructure:"migration"`
}

type APIConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	MaxHeaderBytes int    `mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Name              string `mapstructure:"name"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	MinConnections    int    `mapstructure:"min_connections"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ProviderConfig configures the on-chain data provider gateway (§6).
type ProviderConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	APIKeys        []string `mapstructure:"api_keys"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	MaxRetries     int      `mapstructure:"max_retries"`
}

// OracleConfig configures the primary/secondary price oracle pair (§4.1).
type OracleConfig struct {
	PrimaryURL     string `mapstructure:"primary_url"`
	SecondaryURL   string `mapstructure:"secondary_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	CacheTTLSeconds int   `mapstructure:"cache_ttl_seconds"`
}

// WorkerPoolConfig bounds per-stage I/O concurrency (§5).
type WorkerPoolConfig struct {
	Size int `mapstructure:"size"`
}

// TrackingConfig is the Live Tracker's (C7) configuration.
type TrackingConfig struct {
	HoursLookback      int     `mapstructure:"hours_lookback"`
	MinTokenValueUSD   float64 `mapstructure:"min_token_value_usd"`
	DeltaRelative      float64 `mapstructure:"delta_relative"`
	CadenceHours       int     `mapstructure:"cadence_hours"`
}

// ScoringConfig is the Scorer's (C4) qualification gates.
type ScoringConfig struct {
	MinScore       float64 `mapstructure:"min_score"`
	MinWeightedROI float64 `mapstructure:"min_weighted_roi"`
	MinTrades      int     `mapstructure:"min_trades"`
}

// TiersConfig is the Tier Analyzer's (C5) fixed grid.
type TiersConfig struct {
	Grid []float64 `mapstructure:"grid"`
}

// ThresholdConfig is the Threshold Selector's (C6) reliable-set gates.
type ThresholdConfig struct {
	MinTrades  int     `mapstructure:"min_trades"`
	MinWinRate float64 `mapstructure:"min_winrate"`
	ROICap     float64 `mapstructure:"roi_cap"`
}

// ConsensusConfig is the Consensus Detector's (C9) window and filters.
type ConsensusConfig struct {
	MinWhales   int     `mapstructure:"min_whales"`
	WindowHours int     `mapstructure:"window_hours"`
	McapMin     float64 `mapstructure:"mcap_min"`
	McapMax     float64 `mapstructure:"mcap_max"`
	Stablecoins []string `mapstructure:"stablecoins"`
}

// MigrationConfig is the Migration Handler's (C8) window and fraction.
type MigrationConfig struct {
	PortfolioFraction float64 `mapstructure:"portfolio_fraction"`
	WindowHours       int     `mapstructure:"window_hours"`
}

// Load reads configuration from environment variables (SMARTWALLET_-prefixed,
// automatic), an optional config.yaml (current dir, ./config, ../config,
// /etc/smartwallet), and programmatic defaults, in that precedence order.
func Load() (*Config, error) {
	setDefaults()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")
	viper.AddConfigPath("/etc/smartwallet")

	viper.SetEnvPrefix("SMARTWALLET")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading environment config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", 30)
	viper.SetDefault("api.write_timeout", 30)
	viper.SetDefault("api.max_header_bytes", 1048576)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "smartwallet")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 20)
	viper.SetDefault("database.min_connections", 5)
	viper.SetDefault("database.max_conn_lifetime", 3600)
	viper.SetDefault("database.max_conn_idle_time", 1800)
	viper.SetDefault("database.health_check_period", 60)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)

	viper.SetDefault("provider.base_url", "")
	viper.SetDefault("provider.api_keys", []string{})
	viper.SetDefault("provider.timeout_seconds", 30)
	viper.SetDefault("provider.max_retries", 5)

	viper.SetDefault("oracle.primary_url", "")
	viper.SetDefault("oracle.secondary_url", "")
	viper.SetDefault("oracle.timeout_seconds", 30)
	viper.SetDefault("oracle.cache_ttl_seconds", 30)

	viper.SetDefault("worker_pool.size", 8)

	viper.SetDefault("tracking.hours_lookback", 24)
	viper.SetDefault("tracking.min_token_value_usd", 500.0)
	viper.SetDefault("tracking.delta_relative", 0.05)
	viper.SetDefault("tracking.cadence_hours", 2)

	viper.SetDefault("scoring.min_score", 20.0)
	viper.SetDefault("scoring.min_weighted_roi", 50.0)
	viper.SetDefault("scoring.min_trades", 3)

	viper.SetDefault("tiers.grid", []float64{3000, 4000, 5000, 6000, 7000, 8000, 9000, 10000, 11000, 12000})

	viper.SetDefault("threshold.min_trades", 5)
	viper.SetDefault("threshold.min_winrate", 20.0)
	viper.SetDefault("threshold.roi_cap", 500.0)

	viper.SetDefault("consensus.min_whales", 2)
	viper.SetDefault("consensus.window_hours", 48)
	viper.SetDefault("consensus.mcap_min", 100000.0)
	viper.SetDefault("consensus.mcap_max", 100000000.0)
	viper.SetDefault("consensus.stablecoins", []string{"USDT", "USDC", "DAI", "BUSD", "FDUSD", "TUSD"})

	viper.SetDefault("migration.portfolio_fraction", 0.70)
	viper.SetDefault("migration.window_hours", 168)
}
