package simulate

import (
	"math"

	"github.com/contactkeval/option-greeks-sim/internal/pricing"
)

// defaultVolatility is reported when a track is too short to measure.
const defaultVolatility = 0.30

// RealizedVolatility measures how volatile a simulated spot track turned out
// to be. prices is the track as returned by Series.Spots: the initial spot
// followed by one spot per step. The result is the sample standard deviation
// of the daily log returns, annualised over pricing.TradingDaysPerYear. Two
// returns are needed for a sample deviation; shorter tracks report the 0.30
// default.
func RealizedVolatility(prices []float64) float64 {
	if len(prices) < 3 {
		return defaultVolatility
	}
	rets := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		rets = append(rets, math.Log(prices[i]/prices[i-1]))
	}
	mean := 0.0
	for _, v := range rets {
		mean += v
	}
	mean /= float64(len(rets))
	sd := 0.0
	for _, v := range rets {
		sd += (v - mean) * (v - mean)
	}
	sd = math.Sqrt(sd / float64(len(rets)-1))
	return sd * math.Sqrt(pricing.TradingDaysPerYear)
}
