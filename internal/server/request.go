package server

import (
	"fmt"
	"time"

	"github.com/contactkeval/option-greeks-sim/internal/pricing"
)

// ContractRequest carries contract inputs in a JSON body or a query string.
type ContractRequest struct {
	Kind          string  `json:"kind" form:"kind"`
	Spot          float64 `json:"spot" form:"spot" binding:"required"`
	Strike        float64 `json:"strike" form:"strike" binding:"required"`
	Volatility    float64 `json:"volatility" form:"volatility" binding:"required"`
	Expiry        string  `json:"expiry" form:"expiry" binding:"required"`
	Rate          float64 `json:"rate" form:"rate"`
	Drift         float64 `json:"drift" form:"drift"`
	ValuationDate string  `json:"valuation_date" form:"valuation_date"` // empty = today
}

// SimulateRequest asks for one batch run.
type SimulateRequest struct {
	ContractRequest
	Seed int64 `json:"seed" form:"seed"` // 0 = time based
}

// EnsembleRequest asks for several seeded batch runs.
type EnsembleRequest struct {
	SimulateRequest
	Paths   int `json:"paths" binding:"required,min=1"`
	Workers int `json:"workers" binding:"min=0"`
}

// LiveRequest configures a websocket stream.
type LiveRequest struct {
	SimulateRequest
	MaxTicks int    `form:"max_ticks" binding:"min=0"`
	Schedule string `form:"schedule"`
}

// badRequest marks errors caused by client input.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// spec parses the dates of r. The kind is resolved separately because the
// price endpoint accepts an empty kind.
func (r ContractRequest) spec(now time.Time) (pricing.ContractSpec, time.Time, error) {
	expiry, err := pricing.ParseDate(r.Expiry)
	if err != nil {
		return pricing.ContractSpec{}, time.Time{}, badRequest{fmt.Errorf("expiry: %w", err)}
	}
	valuation := pricing.Date(now)
	if r.ValuationDate != "" {
		valuation, err = pricing.ParseDate(r.ValuationDate)
		if err != nil {
			return pricing.ContractSpec{}, time.Time{}, badRequest{fmt.Errorf("valuation_date: %w", err)}
		}
	}
	return pricing.ContractSpec{
		Spot:       r.Spot,
		Strike:     r.Strike,
		Volatility: r.Volatility,
		Expiry:     expiry,
		Rate:       r.Rate,
		Drift:      r.Drift,
	}, valuation, nil
}

// kinds returns the requested kind, or both kinds when none was given.
func (r ContractRequest) kinds() ([]pricing.Kind, error) {
	if r.Kind == "" {
		return []pricing.Kind{pricing.Call, pricing.Put}, nil
	}
	k, err := pricing.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	return []pricing.Kind{k}, nil
}

// kind returns the requested kind, defaulting to a call.
func (r ContractRequest) kind() (pricing.Kind, error) {
	if r.Kind == "" {
		return pricing.Call, nil
	}
	return pricing.ParseKind(r.Kind)
}

// checkHorizon bounds the number of simulated days, one snapshot each.
func checkHorizon(spec pricing.ContractSpec, valuation time.Time, maxDays int) error {
	days := int(spec.Expiry.Sub(valuation).Hours() / 24)
	if days > maxDays {
		return badRequest{fmt.Errorf("expiry: at most %d calendar days after the valuation date allowed, got %d", maxDays, days)}
	}
	return nil
}

func (r SimulateRequest) seed(now time.Time) int64 {
	if r.Seed != 0 {
		return r.Seed
	}
	return now.UnixNano()
}
