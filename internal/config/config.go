// Package config defines all configuration for the market maker.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// sensitive fields overridable via MM_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	DryRun    bool            `mapstructure:"dry_run"`
	Pair      string          `mapstructure:"pair"`
	Maker     MakerConfig     `mapstructure:"maker"`
	Reference ReferenceConfig `mapstructure:"reference"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	DB        DBConfig        `mapstructure:"db"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// DashboardConfig controls the optional read-only HTTP/WebSocket status
// server. It exposes the current ladder and pricing state for operators;
// the control loop never reads from it.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MakerConfig holds the primary exchange's endpoints and HMAC credentials.
type MakerConfig struct {
	RESTBaseURL string `mapstructure:"rest_base_url"`
	WSURL       string `mapstructure:"ws_url"`
	APIKey      string `mapstructure:"api_key"`
	Secret      string `mapstructure:"secret"`
}

// ReferenceConfig holds the deeper reference exchange's endpoints and the
// optional credentials its private calls would use (unused by the core,
// which only reads its public book).
type ReferenceConfig struct {
	RESTBaseURL string `mapstructure:"rest_base_url"`
	APIKey      string `mapstructure:"api_key"`
	Secret      string `mapstructure:"secret"`
	Passphrase  string `mapstructure:"passphrase"`
}

// StrategyConfig tunes the ladder and depth-management parameters.
//
//   - NAsks / NBids: ladder depth per side.
//   - ExpectedDepthMin / ExpectedDepthMax: the notional band DepthManager
//     targets at pct=2%.
//   - LadderResetInterval: bulk cancel-all circuit breaker cadence.
//   - CounterResetInterval: amount_bought/amount_sold reset cadence.
//   - EventBusCapacity: buffered-channel size for the EventBus.
type StrategyConfig struct {
	BaseAsset            string        `mapstructure:"base_asset"`
	QuoteAsset           string        `mapstructure:"quote_asset"`
	NAsks                int           `mapstructure:"n_asks"`
	NBids                int           `mapstructure:"n_bids"`
	ExpectedDepthMin     float64       `mapstructure:"expected_depth_min"`
	ExpectedDepthMax     float64       `mapstructure:"expected_depth_max"`
	LadderResetInterval  time.Duration `mapstructure:"ladder_reset_interval"`
	CounterResetInterval time.Duration `mapstructure:"counter_reset_interval"`
	ListenKeyRenewal     time.Duration `mapstructure:"listen_key_renewal"`
	EventBusCapacity     int           `mapstructure:"event_bus_capacity"`
}

// DBConfig selects the Recorder's backing database. DSN starting with
// postgres:// or postgresql:// selects the Postgres driver; anything else
// is treated as a SQLite file path.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LoggingConfig controls the slog handler built in main.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: MM_MAKER_API_KEY, MM_MAKER_SECRET,
// MM_REFERENCE_API_KEY, MM_REFERENCE_SECRET, MM_REFERENCE_PASSPHRASE,
// MM_DB_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("MM_MAKER_API_KEY"); key != "" {
		cfg.Maker.APIKey = key
	}
	if secret := os.Getenv("MM_MAKER_SECRET"); secret != "" {
		cfg.Maker.Secret = secret
	}
	if key := os.Getenv("MM_REFERENCE_API_KEY"); key != "" {
		cfg.Reference.APIKey = key
	}
	if secret := os.Getenv("MM_REFERENCE_SECRET"); secret != "" {
		cfg.Reference.Secret = secret
	}
	if pass := os.Getenv("MM_REFERENCE_PASSPHRASE"); pass != "" {
		cfg.Reference.Passphrase = pass
	}
	if dsn := os.Getenv("MM_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if os.Getenv("MM_DRY_RUN") == "true" || os.Getenv("MM_DRY_RUN") == "1" {
		cfg.DryRun = true
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in zero-valued tunables that must never be zero at
// runtime, without requiring every operator to restate the spec's defaults
// in their YAML file.
func (c *Config) applyDefaults() {
	if c.Strategy.BaseAsset == "" {
		c.Strategy.BaseAsset = "RMV"
	}
	if c.Strategy.QuoteAsset == "" {
		c.Strategy.QuoteAsset = "USDT"
	}
	if c.Strategy.NAsks == 0 {
		c.Strategy.NAsks = 5
	}
	if c.Strategy.NBids == 0 {
		c.Strategy.NBids = 5
	}
	if c.Strategy.ExpectedDepthMin == 0 {
		c.Strategy.ExpectedDepthMin = 1200
	}
	if c.Strategy.ExpectedDepthMax == 0 {
		c.Strategy.ExpectedDepthMax = 2500
	}
	if c.Strategy.LadderResetInterval == 0 {
		c.Strategy.LadderResetInterval = 30 * time.Minute
	}
	if c.Strategy.CounterResetInterval == 0 {
		c.Strategy.CounterResetInterval = 45 * time.Minute
	}
	if c.Strategy.ListenKeyRenewal == 0 {
		c.Strategy.ListenKeyRenewal = 30 * time.Minute
	}
	if c.Strategy.EventBusCapacity == 0 {
		c.Strategy.EventBusCapacity = 256
	}
	if c.DB.MaxOpenConns == 0 {
		c.DB.MaxOpenConns = 10
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8090
	}
}

// Validate checks all required fields and value ranges. A Fatal-class
// configuration error aborts startup rather than degrading mid-run.
func (c *Config) Validate() error {
	if c.Pair == "" {
		return fmt.Errorf("pair is required")
	}
	if c.Maker.APIKey == "" || c.Maker.Secret == "" {
		return fmt.Errorf("maker.api_key and maker.secret are required (set MM_MAKER_API_KEY / MM_MAKER_SECRET)")
	}
	if c.Maker.RESTBaseURL == "" || c.Maker.WSURL == "" {
		return fmt.Errorf("maker.rest_base_url and maker.ws_url are required")
	}
	if c.Reference.RESTBaseURL == "" {
		return fmt.Errorf("reference.rest_base_url is required")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required (set MM_DB_DSN)")
	}
	if c.Strategy.NAsks <= 0 || c.Strategy.NBids <= 0 {
		return fmt.Errorf("strategy.n_asks and strategy.n_bids must be > 0")
	}
	if c.Strategy.ExpectedDepthMin <= 0 || c.Strategy.ExpectedDepthMax < c.Strategy.ExpectedDepthMin {
		return fmt.Errorf("strategy.expected_depth_min/max must be positive and ordered")
	}
	return nil
}
