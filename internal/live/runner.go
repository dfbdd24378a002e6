// Package live drives a simulator in incremental mode on a fixed cadence,
// handing every new snapshot to a sink (a console printer, a websocket, ...).
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/contactkeval/option-greeks-sim/internal/logger"
	"github.com/contactkeval/option-greeks-sim/internal/simulate"
)

const (
	// DefaultMaxTicks bounds a live run that does not set its own limit.
	DefaultMaxTicks = 500

	// DefaultSchedule ticks once per second.
	DefaultSchedule = "@every 1s"

	// DefaultMaxInterval is the longest accepted gap between two ticks.
	DefaultMaxInterval = 24 * time.Hour
)

// Sink receives each snapshot as it is produced. A non-nil error stops the run.
type Sink func(simulate.Snapshot) error

// Stepper is the incremental-mode surface of a simulator.
type Stepper interface {
	Step() (simulate.Snapshot, error)
	State() simulate.State
	RunID() string
}

// Config bounds and paces a live run.
type Config struct {
	Schedule string // cron spec, seconds field enabled ("@every 1s", "*/2 * * * * *")
	MaxTicks int    // 0 = DefaultMaxTicks

	MaxInterval time.Duration // 0 = DefaultMaxInterval
}

// Result reports why a live run stopped.
type Result struct {
	RunID  string `json:"run_id"`
	Ticks  int    `json:"ticks"`
	Reason string `json:"reason"`
}

const (
	ReasonExpired   = "expired"
	ReasonMaxTicks  = "max_ticks"
	ReasonCancelled = "cancelled"
	ReasonFailed    = "failed"
)

// Runner steps a simulator once per scheduled tick.
type Runner struct {
	sim  Stepper
	sink Sink
	cfg  Config

	mu    sync.Mutex
	ticks int
	done  chan struct{}
	once  sync.Once
	res   Result
	err   error
}

// NewRunner validates the schedule and returns a runner that has not started.
func NewRunner(sim Stepper, sink Sink, cfg Config) (*Runner, error) {
	if sim == nil || sink == nil {
		return nil, errors.New("live: simulator and sink are required")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = DefaultMaxTicks
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	sched, err := parser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("live: invalid schedule %q: %w", cfg.Schedule, err)
	}
	if err := checkCadence(sched, time.Now(), cfg.MaxInterval); err != nil {
		return nil, fmt.Errorf("live: schedule %q: %w", cfg.Schedule, err)
	}
	return &Runner{
		sim:  sim,
		sink: sink,
		cfg:  cfg,
		done: make(chan struct{}),
		res:  Result{RunID: sim.RunID()},
	}, nil
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// checkCadence rejects schedules that never fire (cron gives up after five
// years, e.g. on February 30) or whose first two ticks are further apart
// than limit.
func checkCadence(sched cron.Schedule, now time.Time, limit time.Duration) error {
	first := sched.Next(now)
	if first.IsZero() {
		return errors.New("never fires")
	}
	second := sched.Next(first)
	if second.IsZero() || first.Sub(now) > limit || second.Sub(first) > limit {
		return fmt.Errorf("fires less often than every %s", limit)
	}
	return nil
}

// Run schedules ticks and blocks until the simulator expires, the tick limit
// is reached, the sink fails or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(r.cfg.Schedule, r.Tick); err != nil {
		return Result{}, fmt.Errorf("live: schedule: %w", err)
	}

	logger.Infof("live run %s started (%s, max %d ticks)", r.res.RunID, r.cfg.Schedule, r.cfg.MaxTicks)
	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-r.done:
	case <-ctx.Done():
		r.finish(ReasonCancelled, nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	logger.Infof("live run %s stopped after %d ticks: %s", r.res.RunID, r.res.Ticks, r.res.Reason)
	return r.res, r.err
}

// Tick performs one step and publishes it. It is safe to call directly,
// which is how callers with their own timer drive the runner.
func (r *Runner) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.done:
		return
	default:
	}

	snap, err := r.sim.Step()
	switch {
	case errors.Is(err, simulate.ErrSimulationFinished):
		r.finishLocked(ReasonExpired, nil)
		return
	case err != nil:
		r.finishLocked(ReasonFailed, err)
		return
	}

	r.ticks++
	r.res.Ticks = r.ticks
	if err := r.sink(snap); err != nil {
		r.finishLocked(ReasonFailed, fmt.Errorf("live: sink: %w", err))
		return
	}

	switch {
	case r.sim.State() == simulate.Expired:
		r.finishLocked(ReasonExpired, nil)
	case r.ticks >= r.cfg.MaxTicks:
		r.finishLocked(ReasonMaxTicks, nil)
	}
}

// Done is closed once the run has stopped.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) finish(reason string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked(reason, err)
}

func (r *Runner) finishLocked(reason string, err error) {
	r.once.Do(func() {
		r.res.Reason = reason
		r.err = err
		close(r.done)
	})
}
