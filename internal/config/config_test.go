package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.DCF.ProjectionYears)
	assert.Len(t, cfg.DCF.DiscountRates, 5)
	assert.Len(t, cfg.DCF.TerminalGrowthRates, 5)
	assert.Equal(t, 0.50, cfg.LBO.DebtPaydownRate)
	assert.Equal(t, 0.08, cfg.LBO.DefaultTrancheRate)
	assert.Equal(t, 6.0, cfg.LBO.LeverageCeiling)
	assert.Equal(t, 0.30, cfg.LBO.EquityFloor)
	assert.Equal(t, 10000, cfg.Simulation.DCFSimulations)
	assert.Equal(t, 5000, cfg.Simulation.LBOSimulations)
	assert.Equal(t, 100, cfg.Simulation.PreviewSamples)
}

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero projection years", func(c *Config) { c.DCF.ProjectionYears = 0 }},
		{"empty discount axis", func(c *Config) { c.DCF.DiscountRates = nil }},
		{"discount below terminal growth", func(c *Config) { c.DCF.DiscountRates = []float64{0.01} }},
		{"paydown rate above one", func(c *Config) { c.LBO.DebtPaydownRate = 1.5 }},
		{"negative tranche rate", func(c *Config) { c.LBO.DefaultTrancheRate = -0.08 }},
		{"zero leverage ceiling", func(c *Config) { c.LBO.LeverageCeiling = 0 }},
		{"equity floor above one", func(c *Config) { c.LBO.EquityFloor = 1.2 }},
		{"empty exit multiple axis", func(c *Config) { c.LBO.ExitMultiples = nil }},
		{"zero simulations", func(c *Config) { c.Simulation.DCFSimulations = 0 }},
		{"negative preview", func(c *Config) { c.Simulation.PreviewSamples = -1 }},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
