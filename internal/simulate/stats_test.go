package simulate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealizedVolatility(t *testing.T) {
	assert.Equal(t, defaultVolatility, RealizedVolatility(nil))
	assert.Equal(t, defaultVolatility, RealizedVolatility([]float64{100, 101}))

	// constant growth has no dispersion
	assert.InDelta(t, 0, RealizedVolatility([]float64{100, 110, 121, 133.1}), 1e-12)

	// alternating ±r log returns: sample stdev of {r, -r, r, -r}
	r := 0.01
	prices := []float64{100}
	for i := 0; i < 4; i++ {
		sign := 1.0
		if i%2 == 1 {
			sign = -1
		}
		prices = append(prices, prices[len(prices)-1]*math.Exp(sign*r))
	}
	want := math.Sqrt(4*r*r/3) * math.Sqrt(252)
	assert.InDelta(t, want, RealizedVolatility(prices), 1e-12)
}

func TestRealizedVolatility_CountsInitialSpot(t *testing.T) {
	s := &Series{
		InitialSpot: 100,
		Snapshots:   []Snapshot{{Spot: 101}, {Spot: 99}},
	}
	// two snapshots plus the initial spot give two returns
	assert.Equal(t, []float64{100, 101, 99}, s.Spots())
	assert.NotEqual(t, defaultVolatility, RealizedVolatility(s.Spots()))
}
