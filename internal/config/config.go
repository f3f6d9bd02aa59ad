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
	Kommo   KommoConfig   `yaml:"kommo" mapstructure:"kommo"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// KommoConfig holds Kommo API access settings. BaseURL is the full v4
// API root (https://<subdomain>.kommo.com/api/v4).
type KommoConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Token      string  `yaml:"token" mapstructure:"token"`
	RateRPS    float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
	MaxRetries int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// EnrichConfig configures the enrichment pipeline. WonStatusID and
// LostStatusID default to Kommo's fixed system status ids (142/143);
// CollectionStage is compared against the normalized stage name, so it
// must be given in accent-stripped title-cased form.
type EnrichConfig struct {
	ExcludedPipeline string `yaml:"excluded_pipeline" mapstructure:"excluded_pipeline"`
	CollectionStage  string `yaml:"collection_stage" mapstructure:"collection_stage"`
	WonStatusID      int64  `yaml:"won_status_id" mapstructure:"won_status_id"`
	LostStatusID     int64  `yaml:"lost_status_id" mapstructure:"lost_status_id"`
	AtRiskDays       int    `yaml:"at_risk_days" mapstructure:"at_risk_days"`
	CriticalDays     int    `yaml:"critical_days" mapstructure:"critical_days"`
	Timezone         string `yaml:"timezone" mapstructure:"timezone"`
}

// ScoringConfig holds the heuristic scoring constants. These are
// business rules tuned by sales ops, not algorithm structure, so they
// live in configuration.
type ScoringConfig struct {
	RepeatClientPoints int `yaml:"repeat_client_points" mapstructure:"repeat_client_points"`
	KnownClientPoints  int `yaml:"known_client_points" mapstructure:"known_client_points"`

	HighValuePoints    int   `yaml:"high_value_points" mapstructure:"high_value_points"`
	MidValuePoints     int   `yaml:"mid_value_points" mapstructure:"mid_value_points"`
	HighValueThreshold int64 `yaml:"high_value_threshold" mapstructure:"high_value_threshold"`
	MidValueThreshold  int64 `yaml:"mid_value_threshold" mapstructure:"mid_value_threshold"`

	TagTopPoints  int     `yaml:"tag_top_points" mapstructure:"tag_top_points"`
	TagMidPoints  int     `yaml:"tag_mid_points" mapstructure:"tag_mid_points"`
	TagLowPoints  int     `yaml:"tag_low_points" mapstructure:"tag_low_points"`
	TagTopWinRate float64 `yaml:"tag_top_win_rate" mapstructure:"tag_top_win_rate"`
	TagMidWinRate float64 `yaml:"tag_mid_win_rate" mapstructure:"tag_mid_win_rate"`
	TagLowWinRate float64 `yaml:"tag_low_win_rate" mapstructure:"tag_low_win_rate"`
}

// StoreConfig configures the snapshot store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the JSON API server.
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
	v.SetEnvPrefix("SALES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional; env vars and defaults may suffice.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kommo.rate_rps", 2.0)
	v.SetDefault("kommo.max_retries", 3)
	v.SetDefault("enrich.excluded_pipeline", "whatsapp")
	v.SetDefault("enrich.collection_stage", "Proceso De Cobro")
	v.SetDefault("enrich.won_status_id", 142)
	v.SetDefault("enrich.lost_status_id", 143)
	v.SetDefault("enrich.at_risk_days", 15)
	v.SetDefault("enrich.critical_days", 30)
	v.SetDefault("enrich.timezone", "UTC")
	v.SetDefault("scoring.repeat_client_points", 25)
	v.SetDefault("scoring.known_client_points", 10)
	v.SetDefault("scoring.high_value_points", 20)
	v.SetDefault("scoring.mid_value_points", 10)
	v.SetDefault("scoring.high_value_threshold", 20000)
	v.SetDefault("scoring.mid_value_threshold", 5000)
	v.SetDefault("scoring.tag_top_points", 25)
	v.SetDefault("scoring.tag_mid_points", 15)
	v.SetDefault("scoring.tag_low_points", 5)
	v.SetDefault("scoring.tag_top_win_rate", 0.75)
	v.SetDefault("scoring.tag_mid_win_rate", 0.50)
	v.SetDefault("scoring.tag_low_win_rate", 0.25)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sales-analyst.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks configuration invariants that must fail fast at load
// time rather than mid-run.
func (c *Config) Validate() error {
	e := c.Enrich
	if e.AtRiskDays <= 0 || e.CriticalDays <= 0 {
		return eris.Errorf("config: health thresholds must be positive (at_risk=%d critical=%d)", e.AtRiskDays, e.CriticalDays)
	}
	if e.AtRiskDays >= e.CriticalDays {
		return eris.Errorf("config: at_risk_days (%d) must be below critical_days (%d)", e.AtRiskDays, e.CriticalDays)
	}
	if e.WonStatusID == e.LostStatusID {
		return eris.Errorf("config: won_status_id and lost_status_id are both %d", e.WonStatusID)
	}

	s := c.Scoring
	if s.MidValueThreshold >= s.HighValueThreshold {
		return eris.Errorf("config: mid_value_threshold (%d) must be below high_value_threshold (%d)", s.MidValueThreshold, s.HighValueThreshold)
	}
	if !(s.TagLowWinRate < s.TagMidWinRate && s.TagMidWinRate < s.TagTopWinRate) {
		return eris.New("config: tag win-rate cutoffs must be strictly increasing")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	return nil
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
