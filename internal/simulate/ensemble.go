package simulate

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/option-greeks-sim/internal/logger"
	"github.com/contactkeval/option-greeks-sim/internal/pricing"
)

// EnsembleOptions configures RunEnsemble. Path i is seeded with Seed+i.
type EnsembleOptions struct {
	Paths   int
	Seed    int64
	Workers int // 0 = GOMAXPROCS

	// KeepSeries retains the full series of every path on the result.
	// Without it only the per-path terminal spot and realized volatility
	// outlive the worker.
	KeepSeries bool
}

// EnsembleSummary aggregates the terminal state of every path.
type EnsembleSummary struct {
	Kind                       pricing.Kind `json:"kind"`
	Paths                      int          `json:"paths"`
	Seed                       int64        `json:"seed"`
	InitialPrice               float64      `json:"initial_price"`
	InitialExerciseProbability float64      `json:"initial_exercise_probability"`
	MeanFinalSpot              float64      `json:"mean_final_spot"`
	MeanPayoff                 float64      `json:"mean_payoff"`
	DiscountedMeanPayoff       float64      `json:"discounted_mean_payoff"`
	ExercisedFraction          float64      `json:"exercised_fraction"`
	MeanRealizedVolatility     float64      `json:"mean_realized_volatility"`
}

// EnsembleResult holds the summary and, with KeepSeries, every path in seed order.
type EnsembleResult struct {
	Summary EnsembleSummary `json:"summary"`
	Series  []*Series       `json:"-"`
}

// RunEnsemble runs independent, seeded batch simulations in parallel. Each
// path owns its simulator and generator, so the result only depends on the
// inputs and opts.Seed, not on scheduling. The first failing path cancels
// the others.
func RunEnsemble(ctx context.Context, kind pricing.Kind, spec pricing.ContractSpec, valuation time.Time, opts EnsembleOptions) (*EnsembleResult, error) {
	if opts.Paths <= 0 {
		return nil, fmt.Errorf("ensemble: paths must be positive, got %d", opts.Paths)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	initial, err := pricing.NewContract(kind, spec, valuation)
	if err != nil {
		return nil, fmt.Errorf("ensemble: %w", err)
	}

	outcomes := make([]pathOutcome, opts.Paths)
	var kept []*Series
	if opts.KeepSeries {
		kept = make([]*Series, opts.Paths)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < opts.Paths; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sim, err := NewSeeded(kind, spec, valuation, opts.Seed+int64(i))
			if err != nil {
				return err
			}
			s, err := sim.Run()
			if err != nil {
				return fmt.Errorf("path %d: %w", i, err)
			}
			last, _ := s.Last()
			outcomes[i] = pathOutcome{
				finalSpot:   last.Spot,
				realizedVol: RealizedVolatility(s.Spots()),
			}
			if kept != nil {
				kept[i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ensemble: %w", err)
	}

	summary := summarize(initial, outcomes)
	summary.Seed = opts.Seed
	logger.Infof("ensemble %s: %d paths, mean payoff %.4f vs model price %.4f",
		kind, summary.Paths, summary.DiscountedMeanPayoff, summary.InitialPrice)

	return &EnsembleResult{Summary: summary, Series: kept}, nil
}

// pathOutcome is what the summary needs from one finished path.
type pathOutcome struct {
	finalSpot   float64
	realizedVol float64
}

func summarize(initial pricing.Contract, outcomes []pathOutcome) EnsembleSummary {
	g := pricing.Evaluate(initial)
	sum := EnsembleSummary{
		Kind:                       initial.Kind(),
		Paths:                      len(outcomes),
		InitialPrice:               g.Price,
		InitialExerciseProbability: g.ExerciseProbability,
	}

	var exercised int
	for _, o := range outcomes {
		payoff := pricing.Intrinsic(initial.Kind(), o.finalSpot, initial.Strike())
		if payoff > 0 {
			exercised++
		}
		sum.MeanFinalSpot += o.finalSpot
		sum.MeanPayoff += payoff
		sum.MeanRealizedVolatility += o.realizedVol
	}

	n := float64(len(outcomes))
	sum.MeanFinalSpot /= n
	sum.MeanPayoff /= n
	sum.MeanRealizedVolatility /= n
	sum.ExercisedFraction = float64(exercised) / n
	sum.DiscountedMeanPayoff = sum.MeanPayoff * math.Exp(-initial.Rate()*initial.TimeFraction())
	return sum
}
