package simulate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-greeks-sim/internal/pricing"
)

func TestRunEnsemble_Deterministic(t *testing.T) {
	opts := EnsembleOptions{Paths: 16, Seed: 99, Workers: 4, KeepSeries: true}

	a, err := RunEnsemble(context.Background(), pricing.Call, monthSpec(), valuation, opts)
	require.NoError(t, err)
	opts.Workers = 1
	b, err := RunEnsemble(context.Background(), pricing.Call, monthSpec(), valuation, opts)
	require.NoError(t, err)

	assert.Equal(t, a.Summary, b.Summary)
	require.Len(t, a.Series, 16)

	// path i is the seeded single run with Seed+i
	sim, err := NewSeeded(pricing.Call, monthSpec(), valuation, 99+5)
	require.NoError(t, err)
	single, err := sim.Run()
	require.NoError(t, err)
	assert.Equal(t, single.Snapshots, a.Series[5].Snapshots)
}

func TestRunEnsemble_Summary(t *testing.T) {
	res, err := RunEnsemble(context.Background(), pricing.Put, monthSpec(), valuation, EnsembleOptions{Paths: 50, Seed: 1})
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 50, s.Paths)
	assert.Equal(t, pricing.Put, s.Kind)
	assert.Equal(t, int64(1), s.Seed)
	assert.GreaterOrEqual(t, s.ExercisedFraction, 0.0)
	assert.LessOrEqual(t, s.ExercisedFraction, 1.0)
	assert.GreaterOrEqual(t, s.MeanPayoff, 0.0)
	assert.LessOrEqual(t, s.DiscountedMeanPayoff, s.MeanPayoff)
	assert.Greater(t, s.InitialPrice, 0.0)
	assert.Greater(t, s.MeanRealizedVolatility, 0.0)
}

func TestRunEnsemble_AggregatesWithoutSeries(t *testing.T) {
	const paths = 200
	res, err := RunEnsemble(context.Background(), pricing.Call, monthSpec(), valuation, EnsembleOptions{Paths: paths, Seed: 7})
	require.NoError(t, err)
	assert.Nil(t, res.Series)

	var finalSpot, vol, payoff float64
	for i := 0; i < paths; i++ {
		sim, err := NewSeeded(pricing.Call, monthSpec(), valuation, 7+int64(i))
		require.NoError(t, err)
		s, err := sim.Run()
		require.NoError(t, err)
		last, ok := s.Last()
		require.True(t, ok)
		finalSpot += last.Spot
		vol += RealizedVolatility(s.Spots())
		payoff += pricing.Intrinsic(pricing.Call, last.Spot, monthSpec().Strike)
	}
	assert.InDelta(t, finalSpot/paths, res.Summary.MeanFinalSpot, 1e-9)
	assert.InDelta(t, vol/paths, res.Summary.MeanRealizedVolatility, 1e-12)
	assert.InDelta(t, payoff/paths, res.Summary.MeanPayoff, 1e-9)

	kept, err := RunEnsemble(context.Background(), pricing.Call, monthSpec(), valuation, EnsembleOptions{Paths: paths, Seed: 7, KeepSeries: true})
	require.NoError(t, err)
	assert.Equal(t, res.Summary, kept.Summary)
	require.Len(t, kept.Series, paths)
}

func TestRunEnsemble_Errors(t *testing.T) {
	_, err := RunEnsemble(context.Background(), pricing.Call, monthSpec(), valuation, EnsembleOptions{})
	assert.Error(t, err)

	_, err = RunEnsemble(context.Background(), pricing.Kind(5), monthSpec(), valuation, EnsembleOptions{Paths: 2})
	assert.ErrorIs(t, err, pricing.ErrUnsupportedOptionKind)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunEnsemble(ctx, pricing.Call, monthSpec(), valuation, EnsembleOptions{Paths: 4})
	assert.ErrorIs(t, err, context.Canceled)
}
