// Package config loads the simulator configuration: built-in defaults, an
// optional TOML file, a .env file and OPTSIM_* environment overrides, in
// that order of precedence (last wins).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/contactkeval/option-greeks-sim/internal/live"
	"github.com/contactkeval/option-greeks-sim/internal/logger"
	"github.com/contactkeval/option-greeks-sim/internal/pricing"
	"github.com/contactkeval/option-greeks-sim/internal/server"
)

// Modes the CLI can run in.
const (
	ModeBatch    = "batch"
	ModeLive     = "live"
	ModeEnsemble = "ensemble"
	ModeServe    = "serve"
)

// DefaultExpiryDays places the expiry after the valuation date when none is configured.
const DefaultExpiryDays = 65

// Config is the full application configuration.
type Config struct {
	Contract   ContractConfig   `toml:"contract"`
	Simulation SimulationConfig `toml:"simulation"`
	Report     ReportConfig     `toml:"report"`
	Server     ServerConfig     `toml:"server"`
	Verbosity  int              `toml:"verbosity"` // 0=errors,1=info,2=debug,3=trace
}

// ContractConfig describes the option to simulate.
type ContractConfig struct {
	Kind       string  `toml:"kind"` // "call" or "put"
	Spot       float64 `toml:"spot"`
	Strike     float64 `toml:"strike"`
	Volatility float64 `toml:"volatility"` // annualised, e.g. 0.1 for 10%
	Expiry     string  `toml:"expiry"`     // YYYY-MM-DD, empty = valuation + DefaultExpiryDays
	Rate       float64 `toml:"rate"`
	Drift      float64 `toml:"drift"`
}

// SimulationConfig controls how the path simulator is driven.
type SimulationConfig struct {
	Mode          string `toml:"mode"`
	ValuationDate string `toml:"valuation_date"` // YYYY-MM-DD, empty = today
	Seed          int64  `toml:"seed"`           // 0 = time based
	MaxTicks      int    `toml:"max_ticks"`      // live mode bound
	Schedule      string `toml:"schedule"`       // live mode cron spec
	Paths         int    `toml:"paths"`          // ensemble mode
	Workers       int    `toml:"workers"`        // ensemble mode, 0 = GOMAXPROCS
}

// ReportConfig sets where report files are written.
type ReportConfig struct {
	Dir string `toml:"dir"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	MaxPaths int    `toml:"max_paths"` // per ensemble request
	MaxDays  int    `toml:"max_days"`  // calendar days from valuation to expiry per request
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Contract: ContractConfig{
			Kind:       "call",
			Spot:       9500,
			Strike:     9500,
			Volatility: 0.1,
			Rate:       0.02,
			Drift:      0,
		},
		Simulation: SimulationConfig{
			Mode:     ModeBatch,
			MaxTicks: live.DefaultMaxTicks,
			Schedule: live.DefaultSchedule,
			Paths:    100,
		},
		Report:    ReportConfig{Dir: "./out"},
		Server: ServerConfig{
			Addr:     ":8080",
			MaxPaths: server.DefaultMaxPaths,
			MaxDays:  server.DefaultMaxDays,
		},
		Verbosity: int(logger.Info),
	}
}

// Validate checks the configuration without resolving dates against a clock.
func (c *Config) Validate() error {
	switch c.Simulation.Mode {
	case ModeBatch, ModeLive, ModeEnsemble, ModeServe:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Simulation.Mode)
	}
	if _, err := pricing.ParseKind(c.Contract.Kind); err != nil {
		return fmt.Errorf("config: contract.kind: %w", err)
	}
	if c.Contract.Expiry != "" {
		if _, err := pricing.ParseDate(c.Contract.Expiry); err != nil {
			return fmt.Errorf("config: contract.expiry: %w", err)
		}
	}
	if c.Simulation.ValuationDate != "" {
		if _, err := pricing.ParseDate(c.Simulation.ValuationDate); err != nil {
			return fmt.Errorf("config: simulation.valuation_date: %w", err)
		}
	}
	if c.Simulation.MaxTicks < 0 {
		return fmt.Errorf("config: simulation.max_ticks must not be negative")
	}
	if c.Simulation.Mode == ModeEnsemble && c.Simulation.Paths <= 0 {
		return fmt.Errorf("config: simulation.paths must be positive in ensemble mode")
	}
	if c.Server.MaxPaths < 0 || c.Server.MaxDays < 0 {
		return fmt.Errorf("config: server.max_paths and server.max_days must not be negative")
	}
	if c.Simulation.Mode == ModeServe && strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("config: server.addr is required in serve mode")
	}
	return nil
}

// Run is a configuration resolved against a clock: concrete dates, kind and seed.
type Run struct {
	Kind      pricing.Kind
	Spec      pricing.ContractSpec
	Valuation time.Time
	Seed      int64
}

// Resolve validates c and fills in the clock-dependent defaults. The
// contract itself is validated later by pricing.NewContract.
func (c *Config) Resolve(now time.Time) (*Run, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	kind, _ := pricing.ParseKind(c.Contract.Kind)

	valuation := pricing.Date(now)
	if c.Simulation.ValuationDate != "" {
		valuation, _ = pricing.ParseDate(c.Simulation.ValuationDate)
	}

	expiry := valuation.AddDate(0, 0, DefaultExpiryDays)
	if c.Contract.Expiry != "" {
		expiry, _ = pricing.ParseDate(c.Contract.Expiry)
	}

	seed := c.Simulation.Seed
	if seed == 0 {
		seed = now.UnixNano()
	}

	return &Run{
		Kind: kind,
		Spec: pricing.ContractSpec{
			Spot:       c.Contract.Spot,
			Strike:     c.Contract.Strike,
			Volatility: c.Contract.Volatility,
			Expiry:     expiry,
			Rate:       c.Contract.Rate,
			Drift:      c.Contract.Drift,
		},
		Valuation: valuation,
		Seed:      seed,
	}, nil
}
