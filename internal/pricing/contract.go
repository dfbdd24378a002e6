package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind is the option variant. The zero value is not a valid kind.
type Kind int

const (
	Call Kind = iota + 1
	Put
)

// ParseKind accepts "call"/"c" and "put"/"p", case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedOptionKind, s)
}

// Valid reports whether a pricing model exists for k.
func (k Kind) Valid() bool {
	_, ok := models[k]
	return ok
}

func (k Kind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedOptionKind, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ContractSpec holds the market and contract inputs of an option.
type ContractSpec struct {
	Spot       float64   // underlying spot price, > 0
	Strike     float64   // strike price, > 0
	Volatility float64   // annualised volatility as a decimal, > 0
	Expiry     time.Time // expiry date, compared as a civil date
	Rate       float64   // annualised risk-free rate, continuously compounded
	Drift      float64   // expected annual return of the underlying
}

// WithSpot returns a copy of s with the spot price replaced.
func (s ContractSpec) WithSpot(spot float64) ContractSpec {
	s.Spot = spot
	return s
}

// WithExpiry returns a copy of s with the expiry replaced.
func (s ContractSpec) WithExpiry(expiry time.Time) ContractSpec {
	s.Expiry = Date(expiry)
	return s
}

func (s ContractSpec) validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"spot", s.Spot},
		{"strike", s.Strike},
		{"volatility", s.Volatility},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 1) {
			return &InvalidContractError{Field: p.field, Value: p.value, Reason: "must be a finite positive number"}
		}
	}

	if math.IsNaN(s.Rate) || math.IsInf(s.Rate, 0) {
		return &InvalidContractError{Field: "rate", Value: s.Rate, Reason: "must be finite"}
	}
	if math.IsNaN(s.Drift) || math.IsInf(s.Drift, 0) {
		return &InvalidContractError{Field: "drift", Value: s.Drift, Reason: "must be finite"}
	}
	if s.Expiry.IsZero() {
		return &InvalidContractError{Field: "expiry", Reason: "is required"}
	}
	return nil
}

// Contract is an immutable, validated option snapshot together with the
// derived Black-Scholes terms. Build it with NewContract.
type Contract struct {
	kind      Kind
	spec      ContractSpec
	valuation time.Time
	dt        float64
	d1        float64
	d2        float64
}

// NewContract validates the inputs and computes the time fraction, d1 and d2.
//
// The time fraction is the number of business days from valuation to expiry
// divided by 252. Contracts with no business day left, non-positive spot,
// strike or volatility are rejected with an *InvalidContractError before any
// d1/d2 arithmetic is attempted.
func NewContract(kind Kind, spec ContractSpec, valuation time.Time) (Contract, error) {
	if !kind.Valid() {
		return Contract{}, fmt.Errorf("%w: %s", ErrUnsupportedOptionKind, kind)
	}
	if err := spec.validate(); err != nil {
		return Contract{}, err
	}

	spec.Expiry = Date(spec.Expiry)
	valuation = Date(valuation)

	dt := YearFraction(BusinessDaysBetween(valuation, spec.Expiry))
	if dt <= 0 {
		return Contract{}, &InvalidContractError{
			Field:  "time_fraction",
			Value:  dt,
			Reason: fmt.Sprintf("expiry %s leaves no business day after %s", spec.Expiry.Format(DateLayout), valuation.Format(DateLayout)),
			Err:    ErrNotBeforeExpiry,
		}
	}
	return newContract(kind, spec, valuation, dt), nil
}

// newContract derives d1 and d2 for already validated inputs.
func newContract(kind Kind, spec ContractSpec, valuation time.Time, dt float64) Contract {
	volSqrtT := spec.Volatility * math.Sqrt(dt)
	d1 := (math.Log(spec.Spot/spec.Strike) + (spec.Rate+spec.Volatility*spec.Volatility/2)*dt) / volSqrtT
	return Contract{
		kind:      kind,
		spec:      spec,
		valuation: valuation,
		dt:        dt,
		d1:        d1,
		d2:        d1 - volSqrtT,
	}
}

func (c Contract) Kind() Kind               { return c.kind }
func (c Contract) Spec() ContractSpec       { return c.spec }
func (c Contract) Spot() float64            { return c.spec.Spot }
func (c Contract) Strike() float64          { return c.spec.Strike }
func (c Contract) Volatility() float64      { return c.spec.Volatility }
func (c Contract) Expiry() time.Time        { return c.spec.Expiry }
func (c Contract) Rate() float64            { return c.spec.Rate }
func (c Contract) Drift() float64           { return c.spec.Drift }
func (c Contract) ValuationDate() time.Time { return c.valuation }

// TimeFraction is the annualised time to expiry in trading years.
func (c Contract) TimeFraction() float64 { return c.dt }

func (c Contract) D1() float64 { return c.d1 }
func (c Contract) D2() float64 { return c.d2 }
