package pricing

import (
	"fmt"
	"math"
)

// Greeks is the priced output of a contract.
//
// Theta is expressed per year and vega per unit of volatility (not per 1%).
type Greeks struct {
	Price               float64 `json:"price"`
	Delta               float64 `json:"delta"`
	Gamma               float64 `json:"gamma"`
	Theta               float64 `json:"theta"`
	Vega                float64 `json:"vega"`
	ExerciseProbability float64 `json:"exercise_probability"`
}

// model is the set of kind-specific formulas. Gamma and vega do not depend on
// the kind and live outside the table.
type model struct {
	price               func(c Contract) float64
	delta               func(c Contract) float64
	theta               func(c Contract) float64
	exerciseProbability func(c Contract) float64
}

var models = map[Kind]model{
	Call: {
		price:               callPrice,
		delta:               callDelta,
		theta:               callTheta,
		exerciseProbability: callExerciseProbability,
	},
	Put: {
		price:               putPrice,
		delta:               putDelta,
		theta:               putTheta,
		exerciseProbability: putExerciseProbability,
	},
}

// Evaluate prices c and computes its sensitivities.
//
// Evaluate panics if c was not built by NewContract.
func Evaluate(c Contract) Greeks {
	m, ok := models[c.kind]
	if !ok {
		panic(fmt.Sprintf("pricing: evaluate on unbuilt contract (%s)", c.kind))
	}
	return Greeks{
		Price:               m.price(c),
		Delta:               m.delta(c),
		Gamma:               gamma(c),
		Theta:               m.theta(c),
		Vega:                vega(c),
		ExerciseProbability: m.exerciseProbability(c),
	}
}

// Settle returns the at-expiry limit of the model: intrinsic value, a step
// delta, zero gamma/theta/vega and a certain (0 or 1) exercise outcome.
func Settle(kind Kind, spot, strike float64) (Greeks, error) {
	if !kind.Valid() {
		return Greeks{}, fmt.Errorf("%w: %s", ErrUnsupportedOptionKind, kind)
	}
	g := Greeks{Price: Intrinsic(kind, spot, strike)}
	switch kind {
	case Call:
		if spot > strike {
			g.Delta = 1
			g.ExerciseProbability = 1
		}
	case Put:
		if spot < strike {
			g.Delta = -1
			g.ExerciseProbability = 1
		}
	}
	return g, nil
}

// Intrinsic is the exercise value of the option at the given spot.
func Intrinsic(kind Kind, spot, strike float64) float64 {
	if kind == Put {
		return math.Max(0, strike-spot)
	}
	return math.Max(0, spot-strike)
}

// discountedStrike is K·e^(-r·dt).
func discountedStrike(c Contract) float64 {
	return c.spec.Strike * math.Exp(-c.spec.Rate*c.dt)
}

func callPrice(c Contract) float64 {
	return c.spec.Spot*NormCDF(c.d1) - discountedStrike(c)*NormCDF(c.d2)
}

func putPrice(c Contract) float64 {
	return discountedStrike(c)*NormCDF(-c.d2) - c.spec.Spot*NormCDF(-c.d1)
}

func callDelta(c Contract) float64 {
	return NormCDF(c.d1)
}

func putDelta(c Contract) float64 {
	return NormCDF(c.d1) - 1
}

func gamma(c Contract) float64 {
	return NormPDF(c.d1) / (c.spec.Spot * c.spec.Volatility * math.Sqrt(c.dt))
}

func vega(c Contract) float64 {
	return c.spec.Spot * math.Sqrt(c.dt) * NormPDF(c.d1)
}

// timeDecay is the diffusion part of theta shared by both kinds.
func timeDecay(c Contract) float64 {
	return -c.spec.Spot * NormPDF(c.d1) * c.spec.Volatility / (2 * math.Sqrt(c.dt))
}

func callTheta(c Contract) float64 {
	return timeDecay(c) - c.spec.Rate*discountedStrike(c)*NormCDF(c.d2)
}

func putTheta(c Contract) float64 {
	return timeDecay(c) + c.spec.Rate*discountedStrike(c)*NormCDF(-c.d2)
}

// exerciseScore standardises the distance to strike under the drift
// assumption: ((K - S) - μ·S·dt) / (σ·S·√dt).
func exerciseScore(c Contract) float64 {
	s := c.spec
	return ((s.Strike - s.Spot) - s.Drift*s.Spot*c.dt) / (s.Volatility * s.Spot * math.Sqrt(c.dt))
}

func callExerciseProbability(c Contract) float64 {
	return 1 - NormCDF(exerciseScore(c))
}

func putExerciseProbability(c Contract) float64 {
	return NormCDF(exerciseScore(c))
}
