// Package simulate advances an option's underlying one trading day at a time
// and re-prices the contract after every move.
//
// A Simulator can be driven incrementally with Step (one call per animation
// tick, for instance) or to completion with Run / RunBatch. Both share the
// same transition:
//
//	spot'   = spot + N(0, σ·spot·sqrt(1/252))
//	expiry' = expiry - 1 day
//
// and the run expires once expiry' reaches the valuation date.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/contactkeval/option-greeks-sim/internal/logger"
	"github.com/contactkeval/option-greeks-sim/internal/pricing"
)

// ErrSimulationFinished is returned by Step once the simulator has expired.
var ErrSimulationFinished = errors.New("simulation finished")

// stepScale is sqrt(dt) for one trading day.
var stepScale = math.Sqrt(1.0 / pricing.TradingDaysPerYear)

// Source supplies standard normal draws. *rand.Rand satisfies it.
type Source interface {
	NormFloat64() float64
}

// State is the lifecycle state of a simulator.
type State int

const (
	Running State = iota
	Expired
)

func (s State) String() string {
	if s == Expired {
		return "expired"
	}
	return "running"
}

// Simulator owns a single simulation run. It is not safe for concurrent use.
type Simulator struct {
	kind      pricing.Kind
	spec      pricing.ContractSpec
	valuation time.Time
	src       Source
	initial   pricing.Greeks
	state     State
	err       error
	series    Series
}

// New validates the option kind and the initial contract and returns a
// simulator in the Running state. src drives the price moves; pass a seeded
// *rand.Rand for reproducible runs.
func New(kind pricing.Kind, spec pricing.ContractSpec, valuation time.Time, src Source) (*Simulator, error) {
	if src == nil {
		return nil, fmt.Errorf("simulate: nil random source")
	}
	c, err := pricing.NewContract(kind, spec, valuation)
	if err != nil {
		return nil, fmt.Errorf("initial contract: %w", err)
	}

	return &Simulator{
		kind:      kind,
		spec:      c.Spec(),
		valuation: c.ValuationDate(),
		src:       src,
		initial:   pricing.Evaluate(c),
		state:     Running,
		series: Series{
			RunID:         uuid.NewString(),
			Kind:          kind,
			Strike:        spec.Strike,
			Volatility:    spec.Volatility,
			Rate:          spec.Rate,
			Drift:         spec.Drift,
			ValuationDate: c.ValuationDate(),
			InitialExpiry: c.Expiry(),
			InitialSpot:   spec.Spot,
		},
	}, nil
}

// NewSeeded is New with a private math/rand generator seeded with seed.
// The seed is recorded on the series.
func NewSeeded(kind pricing.Kind, spec pricing.ContractSpec, valuation time.Time, seed int64) (*Simulator, error) {
	sim, err := New(kind, spec, valuation, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	sim.series.Seed = &seed
	return sim, nil
}

// State returns the current lifecycle state.
func (s *Simulator) State() State { return s.state }

// Err returns the error that halted the simulator, if any.
func (s *Simulator) Err() error { return s.err }

// Initial returns the pricing of the contract the simulator was built from.
func (s *Simulator) Initial() pricing.Greeks { return s.initial }

// Spot returns the current underlying price.
func (s *Simulator) Spot() float64 { return s.spec.Spot }

// Expiry returns the current (decremented) expiry.
func (s *Simulator) Expiry() time.Time { return s.spec.Expiry }

// RunID identifies the series produced by this simulator.
func (s *Simulator) RunID() string { return s.series.RunID }

// Series returns a copy of the snapshots produced so far.
func (s *Simulator) Series() *Series {
	out := s.series
	out.Snapshots = slices.Clone(s.series.Snapshots)
	return &out
}

// Step applies one transition and returns the new snapshot.
//
// Stepping an expired simulator returns ErrSimulationFinished. If the moved
// contract is invalid (for instance the walk drove spot to zero) the error is
// returned and every later Step returns it as well.
func (s *Simulator) Step() (Snapshot, error) {
	if s.err != nil {
		return Snapshot{}, s.err
	}
	if s.state == Expired {
		return Snapshot{}, ErrSimulationFinished
	}

	step := len(s.series.Snapshots)
	change := s.src.NormFloat64() * s.spec.Volatility * s.spec.Spot * stepScale
	next := s.spec.
		WithSpot(s.spec.Spot + change).
		WithExpiry(s.spec.Expiry.AddDate(0, 0, -1))

	snap, err := s.price(step, next)
	if err != nil {
		s.err = fmt.Errorf("step %d: %w", step, err)
		logger.Errorf("run %s halted: %v", s.series.RunID, s.err)
		return Snapshot{}, s.err
	}

	s.spec = next
	s.series.Snapshots = append(s.series.Snapshots, snap)
	logger.Tracef("run %s step %d spot=%.4f price=%.4f delta=%.4f dt=%.4f",
		s.series.RunID, step, snap.Spot, snap.Price, snap.Delta, snap.TimeFraction)

	if !next.Expiry.After(s.valuation) {
		s.state = Expired
		logger.Debugf("run %s expired after %d steps", s.series.RunID, len(s.series.Snapshots))
	}
	return snap, nil
}

// price evaluates spec at step. When no business day is left before expiry
// the contract is settled at its intrinsic value instead.
func (s *Simulator) price(step int, spec pricing.ContractSpec) (Snapshot, error) {
	snap := Snapshot{
		Step:   step,
		Expiry: spec.Expiry,
		Spot:   spec.Spot,
	}

	c, err := pricing.NewContract(s.kind, spec, s.valuation)
	switch {
	case err == nil:
		snap.Greeks = pricing.Evaluate(c)
		snap.TimeFraction = c.TimeFraction()
	case errors.Is(err, pricing.ErrNotBeforeExpiry):
		g, err := pricing.Settle(s.kind, spec.Spot, spec.Strike)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Greeks = g
		snap.TimeFraction = pricing.YearFraction(pricing.BusinessDaysBetween(s.valuation, spec.Expiry))
		snap.Settled = true
	default:
		return Snapshot{}, err
	}
	return snap, nil
}

// Run steps until the simulator expires and returns the complete series.
func (s *Simulator) Run() (*Series, error) {
	for s.state == Running {
		if _, err := s.Step(); err != nil {
			return nil, err
		}
	}
	logger.Debugf("run %s finished with %d snapshots", s.series.RunID, len(s.series.Snapshots))
	return s.Series(), nil
}

// RunBatch builds a simulator and runs it to expiry.
func RunBatch(kind pricing.Kind, spec pricing.ContractSpec, valuation time.Time, src Source) (*Series, error) {
	sim, err := New(kind, spec, valuation, src)
	if err != nil {
		return nil, err
	}
	return sim.Run()
}
