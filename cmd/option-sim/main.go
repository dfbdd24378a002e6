package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contactkeval/option-greeks-sim/internal/config"
	"github.com/contactkeval/option-greeks-sim/internal/live"
	"github.com/contactkeval/option-greeks-sim/internal/logger"
	"github.com/contactkeval/option-greeks-sim/internal/pricing"
	"github.com/contactkeval/option-greeks-sim/internal/report"
	"github.com/contactkeval/option-greeks-sim/internal/server"
	"github.com/contactkeval/option-greeks-sim/internal/simulate"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config (optional)")
	mode := flag.String("mode", "", "batch, live, ensemble or serve")
	seed := flag.Int64("seed", 0, "random seed, 0 = time based")
	paths := flag.Int("paths", 0, "ensemble paths")
	out := flag.String("out", "", "report directory")
	addr := flag.String("addr", "", "HTTP listen address (serve mode)")
	verbosity := flag.Int("v", -1, "verbosity: 0=errors,1=info,2=debug,3=trace")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("loading config: %v", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Simulation.Mode = *mode
		case "seed":
			cfg.Simulation.Seed = *seed
		case "paths":
			cfg.Simulation.Paths = *paths
		case "out":
			cfg.Report.Dir = *out
		case "addr":
			cfg.Server.Addr = *addr
		case "v":
			cfg.Verbosity = *verbosity
		}
	})
	logger.SetVerbosity(cfg.Verbosity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Errorf("%s failed: %v", cfg.Simulation.Mode, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Simulation.Mode == config.ModeServe {
		if err := cfg.Validate(); err != nil {
			return err
		}
		return server.New(server.Config{
			Addr:     cfg.Server.Addr,
			MaxPaths: cfg.Server.MaxPaths,
			MaxDays:  cfg.Server.MaxDays,
			MaxTicks: cfg.Simulation.MaxTicks,
			Schedule: cfg.Simulation.Schedule,
		}).Run(ctx)
	}

	r, err := cfg.Resolve(time.Now())
	if err != nil {
		return err
	}
	logger.Infof("%s %s spot=%.4f strike=%.4f vol=%.4f expiry=%s valuation=%s seed=%d",
		cfg.Simulation.Mode, r.Kind, r.Spec.Spot, r.Spec.Strike, r.Spec.Volatility,
		r.Spec.Expiry.Format(pricing.DateLayout), r.Valuation.Format(pricing.DateLayout), r.Seed)

	switch cfg.Simulation.Mode {
	case config.ModeBatch:
		return runBatch(r, cfg.Report.Dir)
	case config.ModeLive:
		return runLive(ctx, r, cfg)
	case config.ModeEnsemble:
		return runEnsemble(ctx, r, cfg)
	}
	return fmt.Errorf("unknown mode %q", cfg.Simulation.Mode)
}

func runBatch(r *config.Run, dir string) error {
	start := time.Now()
	sim, err := simulate.NewSeeded(r.Kind, r.Spec, r.Valuation, r.Seed)
	if err != nil {
		return err
	}
	series, err := sim.Run()
	if err != nil {
		return err
	}
	if err := report.WriteAll(series, dir); err != nil {
		return err
	}
	logger.Infof("[done] finished in %v, wrote %d snapshots to %s", time.Since(start), series.Len(), dir)
	return nil
}

func runLive(ctx context.Context, r *config.Run, cfg *config.Config) error {
	sim, err := simulate.NewSeeded(r.Kind, r.Spec, r.Valuation, r.Seed)
	if err != nil {
		return err
	}
	fmt.Printf("initial  price=%.4f delta=%.4f exercise_prob=%.4f\n",
		sim.Initial().Price, sim.Initial().Delta, sim.Initial().ExerciseProbability)

	runner, err := live.NewRunner(sim, printSnapshot, live.Config{
		Schedule: cfg.Simulation.Schedule,
		MaxTicks: cfg.Simulation.MaxTicks,
	})
	if err != nil {
		return err
	}
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	series := sim.Series()
	if err := report.WriteAll(series, cfg.Report.Dir); err != nil {
		return err
	}
	logger.Infof("[done] %s after %d ticks, wrote %d snapshots to %s", res.Reason, res.Ticks, series.Len(), cfg.Report.Dir)
	return nil
}

func printSnapshot(s simulate.Snapshot) error {
	settled := ""
	if s.Settled {
		settled = " settled"
	}
	_, err := fmt.Printf("step %3d %s spot=%.4f price=%.4f delta=%.4f gamma=%.6f theta=%.4f vega=%.4f exercise_prob=%.4f%s\n",
		s.Step, s.Expiry.Format(pricing.DateLayout), s.Spot, s.Price, s.Delta, s.Gamma, s.Theta, s.Vega, s.ExerciseProbability, settled)
	return err
}

func runEnsemble(ctx context.Context, r *config.Run, cfg *config.Config) error {
	start := time.Now()
	res, err := simulate.RunEnsemble(ctx, r.Kind, r.Spec, r.Valuation, simulate.EnsembleOptions{
		Paths:   cfg.Simulation.Paths,
		Seed:    r.Seed,
		Workers: cfg.Simulation.Workers,
	})
	if err != nil {
		return err
	}
	if err := report.WriteEnsembleJSON(res, cfg.Report.Dir); err != nil {
		return err
	}
	s := res.Summary
	logger.Infof("[done] %d paths in %v: initial price %.4f, discounted mean payoff %.4f, exercised %.1f%%",
		s.Paths, time.Since(start), s.InitialPrice, s.DiscountedMeanPayoff, 100*s.ExercisedFraction)
	return nil
}
