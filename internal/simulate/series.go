package simulate

import (
	"time"

	"github.com/contactkeval/option-greeks-sim/internal/pricing"
)

// Snapshot is the priced state of the option after one simulation step.
type Snapshot struct {
	Step   int       `json:"step"`
	Expiry time.Time `json:"expiry"`
	Spot   float64   `json:"spot"`
	pricing.Greeks
	TimeFraction float64 `json:"time_fraction"`
	// Settled marks snapshots priced at their expiry limit because no
	// business day was left before expiry.
	Settled bool `json:"settled"`
}

// Series is the ordered, append-only output of one simulation run.
type Series struct {
	RunID         string       `json:"run_id"`
	Kind          pricing.Kind `json:"kind"`
	Strike        float64      `json:"strike"`
	Volatility    float64      `json:"volatility"`
	Rate          float64      `json:"rate"`
	Drift         float64      `json:"drift"`
	ValuationDate time.Time    `json:"valuation_date"`
	InitialExpiry time.Time    `json:"initial_expiry"`
	InitialSpot   float64      `json:"initial_spot"`
	Seed          *int64       `json:"seed,omitempty"`
	Snapshots     []Snapshot   `json:"snapshots"`
}

// Len returns the number of snapshots.
func (s *Series) Len() int { return len(s.Snapshots) }

// Last returns the most recent snapshot, if any.
func (s *Series) Last() (Snapshot, bool) {
	if len(s.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return s.Snapshots[len(s.Snapshots)-1], true
}

// Spots returns the underlying price track, starting with the
// pre-simulation spot followed by the spot of every snapshot.
func (s *Series) Spots() []float64 {
	out := make([]float64, 0, len(s.Snapshots)+1)
	out = append(out, s.InitialSpot)
	for _, snap := range s.Snapshots {
		out = append(out, snap.Spot)
	}
	return out
}
