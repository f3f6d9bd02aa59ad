package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Enrich: EnrichConfig{
			ExcludedPipeline: "whatsapp",
			CollectionStage:  "Proceso De Cobro",
			WonStatusID:      142,
			LostStatusID:     143,
			AtRiskDays:       15,
			CriticalDays:     30,
			Timezone:         "UTC",
		},
		Scoring: ScoringConfig{
			RepeatClientPoints: 25,
			KnownClientPoints:  10,
			HighValuePoints:    20,
			MidValuePoints:     10,
			HighValueThreshold: 20000,
			MidValueThreshold:  5000,
			TagTopPoints:       25,
			TagMidPoints:       15,
			TagLowPoints:       5,
			TagTopWinRate:      0.75,
			TagMidWinRate:      0.50,
			TagLowWinRate:      0.25,
		},
		Store: StoreConfig{Driver: "sqlite", DatabaseURL: "test.db"},
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "at risk above critical",
			mutate:  func(c *Config) { c.Enrich.AtRiskDays = 31 },
			wantErr: "at_risk_days",
		},
		{
			name:    "at risk equal to critical",
			mutate:  func(c *Config) { c.Enrich.AtRiskDays = 30 },
			wantErr: "at_risk_days",
		},
		{
			name:    "zero threshold",
			mutate:  func(c *Config) { c.Enrich.CriticalDays = 0 },
			wantErr: "must be positive",
		},
		{
			name:    "won equals lost",
			mutate:  func(c *Config) { c.Enrich.LostStatusID = 142 },
			wantErr: "won_status_id",
		},
		{
			name:    "value thresholds inverted",
			mutate:  func(c *Config) { c.Scoring.MidValueThreshold = 20000 },
			wantErr: "mid_value_threshold",
		},
		{
			name:    "tag cutoffs not increasing",
			mutate:  func(c *Config) { c.Scoring.TagMidWinRate = 0.80 },
			wantErr: "strictly increasing",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "mysql" },
			wantErr: "unknown store driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	// No config file in the test working directory, so Load falls back
	// to defaults plus environment.
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Kommo.RateRPS)
	assert.Equal(t, 3, cfg.Kommo.MaxRetries)
	assert.Equal(t, "whatsapp", cfg.Enrich.ExcludedPipeline)
	assert.Equal(t, "Proceso De Cobro", cfg.Enrich.CollectionStage)
	assert.Equal(t, int64(142), cfg.Enrich.WonStatusID)
	assert.Equal(t, int64(143), cfg.Enrich.LostStatusID)
	assert.Equal(t, 15, cfg.Enrich.AtRiskDays)
	assert.Equal(t, 30, cfg.Enrich.CriticalDays)
	assert.Equal(t, int64(20000), cfg.Scoring.HighValueThreshold)
	assert.Equal(t, 0.75, cfg.Scoring.TagTopWinRate)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope"}))
}
