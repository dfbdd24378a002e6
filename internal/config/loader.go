package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/contactkeval/option-greeks-sim/internal/logger"
)

const envPrefix = "OPTSIM_"

// Load merges the TOML file at path (skipped when path is empty) on top of
// Defaults, loads a .env file if present and applies OPTSIM_* environment
// overrides. The result has not been validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, err
		}
		for _, key := range md.Undecoded() {
			logger.Infof("config: ignoring unknown key %s", key)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Contract.Kind, "CONTRACT_KIND")
	setFloat64(&cfg.Contract.Spot, "CONTRACT_SPOT")
	setFloat64(&cfg.Contract.Strike, "CONTRACT_STRIKE")
	setFloat64(&cfg.Contract.Volatility, "CONTRACT_VOLATILITY")
	setStr(&cfg.Contract.Expiry, "CONTRACT_EXPIRY")
	setFloat64(&cfg.Contract.Rate, "CONTRACT_RATE")
	setFloat64(&cfg.Contract.Drift, "CONTRACT_DRIFT")

	setStr(&cfg.Simulation.Mode, "MODE")
	setStr(&cfg.Simulation.ValuationDate, "VALUATION_DATE")
	setInt64(&cfg.Simulation.Seed, "SEED")
	setInt(&cfg.Simulation.MaxTicks, "MAX_TICKS")
	setStr(&cfg.Simulation.Schedule, "SCHEDULE")
	setInt(&cfg.Simulation.Paths, "PATHS")
	setInt(&cfg.Simulation.Workers, "WORKERS")

	setStr(&cfg.Report.Dir, "REPORT_DIR")
	setStr(&cfg.Server.Addr, "SERVER_ADDR")
	setInt(&cfg.Server.MaxPaths, "SERVER_MAX_PATHS")
	setInt(&cfg.Server.MaxDays, "SERVER_MAX_DAYS")
	setInt(&cfg.Verbosity, "VERBOSITY")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the variable is
// set and parses; bad values are logged and ignored.
// ---------------------------------------------------------------------------

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setStr(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			logger.Errorf("config: %s%s=%q is not an integer", envPrefix, key, v)
			return
		}
		*dst = n
	}
}

func setInt64(dst *int64, key string) {
	if v, ok := lookup(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			logger.Errorf("config: %s%s=%q is not an integer", envPrefix, key, v)
			return
		}
		*dst = n
	}
}

func setFloat64(dst *float64, key string) {
	if v, ok := lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logger.Errorf("config: %s%s=%q is not a number", envPrefix, key, v)
			return
		}
		*dst = f
	}
}
