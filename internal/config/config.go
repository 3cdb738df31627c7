package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config carries every engine default in one validated structure. Defaults
// are resolved once at load time, never re-derived inside a calculation.
type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	DCF         DCFConfig        `mapstructure:"dcf"`
	LBO         LBOConfig        `mapstructure:"lbo"`
	Simulation  SimulationConfig `mapstructure:"simulation"`
}

// DCFConfig holds the DCF engine defaults, including the sensitivity grid axes.
type DCFConfig struct {
	ProjectionYears     int       `mapstructure:"projection_years"`
	DiscountRates       []float64 `mapstructure:"discount_rates"`
	TerminalGrowthRates []float64 `mapstructure:"terminal_growth_rates"`
}

// LBOConfig holds the LBO engine defaults.
type LBOConfig struct {
	DebtPaydownRate    float64   `mapstructure:"debt_paydown_rate"`
	DefaultTrancheRate float64   `mapstructure:"default_tranche_rate"`
	LeverageCeiling    float64   `mapstructure:"leverage_ceiling"`
	EquityFloor        float64   `mapstructure:"equity_floor"`
	TargetIRR          float64   `mapstructure:"target_irr"`
	ExitMultiples      []float64 `mapstructure:"exit_multiples"`
	RevenueGrowthRates []float64 `mapstructure:"revenue_growth_rates"`
}

// SimulationConfig bounds Monte Carlo batches.
type SimulationConfig struct {
	DCFSimulations int `mapstructure:"dcf_simulations"`
	LBOSimulations int `mapstructure:"lbo_simulations"`
	PreviewSamples int `mapstructure:"preview_samples"`
	Workers        int `mapstructure:"workers"` // 0 means one per CPU core
}

// Load reads configuration from configs/config.yaml (if present) and the
// environment, applies defaults, and validates the result.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the built-in configuration without touching the
// filesystem. Callers embedding the engines as a library use this.
func Default() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		DCF: DCFConfig{
			ProjectionYears:     5,
			DiscountRates:       []float64{0.08, 0.09, 0.10, 0.11, 0.12},
			TerminalGrowthRates: []float64{0.015, 0.020, 0.025, 0.030, 0.035},
		},
		LBO: LBOConfig{
			DebtPaydownRate:    0.50,
			DefaultTrancheRate: 0.08,
			LeverageCeiling:    6.0,
			EquityFloor:        0.30,
			TargetIRR:          0.20,
			ExitMultiples:      []float64{8, 9, 10, 11, 12},
			RevenueGrowthRates: []float64{0.03, 0.05, 0.07, 0.09, 0.11},
		},
		Simulation: SimulationConfig{
			DCFSimulations: 10000,
			LBOSimulations: 5000,
			PreviewSamples: 100,
			Workers:        0,
		},
	}
}

// Validate checks every configured default once. Engines assume a validated
// config and never re-check these invariants per call.
func (c *Config) Validate() error {
	if c.DCF.ProjectionYears <= 0 {
		return fmt.Errorf("dcf.projection_years must be positive, got %d", c.DCF.ProjectionYears)
	}
	if len(c.DCF.DiscountRates) == 0 || len(c.DCF.TerminalGrowthRates) == 0 {
		return fmt.Errorf("dcf sensitivity axes must not be empty")
	}
	for _, r := range c.DCF.DiscountRates {
		for _, g := range c.DCF.TerminalGrowthRates {
			if r <= g {
				return fmt.Errorf("dcf discount rate %.4f does not exceed terminal growth %.4f", r, g)
			}
		}
	}
	if c.LBO.DebtPaydownRate < 0 || c.LBO.DebtPaydownRate > 1 {
		return fmt.Errorf("lbo.debt_paydown_rate must be within [0,1], got %.4f", c.LBO.DebtPaydownRate)
	}
	if c.LBO.DefaultTrancheRate <= 0 {
		return fmt.Errorf("lbo.default_tranche_rate must be positive, got %.4f", c.LBO.DefaultTrancheRate)
	}
	if c.LBO.LeverageCeiling <= 0 {
		return fmt.Errorf("lbo.leverage_ceiling must be positive, got %.4f", c.LBO.LeverageCeiling)
	}
	if c.LBO.EquityFloor < 0 || c.LBO.EquityFloor > 1 {
		return fmt.Errorf("lbo.equity_floor must be within [0,1], got %.4f", c.LBO.EquityFloor)
	}
	if len(c.LBO.ExitMultiples) == 0 || len(c.LBO.RevenueGrowthRates) == 0 {
		return fmt.Errorf("lbo sensitivity axes must not be empty")
	}
	if c.Simulation.DCFSimulations <= 0 || c.Simulation.LBOSimulations <= 0 {
		return fmt.Errorf("simulation counts must be positive")
	}
	if c.Simulation.PreviewSamples < 0 {
		return fmt.Errorf("simulation.preview_samples must not be negative, got %d", c.Simulation.PreviewSamples)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative, got %d", c.Simulation.Workers)
	}
	return nil
}

func setDefaults() {
	def := Default()

	viper.SetDefault("environment", def.Environment)
	viper.SetDefault("log_level", def.LogLevel)

	// DCF engine
	viper.SetDefault("dcf.projection_years", def.DCF.ProjectionYears)
	viper.SetDefault("dcf.discount_rates", def.DCF.DiscountRates)
	viper.SetDefault("dcf.terminal_growth_rates", def.DCF.TerminalGrowthRates)

	// LBO engine
	viper.SetDefault("lbo.debt_paydown_rate", def.LBO.DebtPaydownRate)
	viper.SetDefault("lbo.default_tranche_rate", def.LBO.DefaultTrancheRate)
	viper.SetDefault("lbo.leverage_ceiling", def.LBO.LeverageCeiling)
	viper.SetDefault("lbo.equity_floor", def.LBO.EquityFloor)
	viper.SetDefault("lbo.target_irr", def.LBO.TargetIRR)
	viper.SetDefault("lbo.exit_multiples", def.LBO.ExitMultiples)
	viper.SetDefault("lbo.revenue_growth_rates", def.LBO.RevenueGrowthRates)

	// Simulation
	viper.SetDefault("simulation.dcf_simulations", def.Simulation.DCFSimulations)
	viper.SetDefault("simulation.lbo_simulations", def.Simulation.LBOSimulations)
	viper.SetDefault("simulation.preview_samples", def.Simulation.PreviewSamples)
	viper.SetDefault("simulation.workers", def.Simulation.Workers)
}
