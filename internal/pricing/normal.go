package pricing

import "gonum.org/v1/gonum/stat/distuv"

// NormCDF computes the cumulative distribution function of the standard normal
// distribution. It returns the probability that a standard normal random
// variable is less than or equal to x.
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF calculates the probability density function of the standard normal
// distribution at x. The peak value, at x = 0, is 1/sqrt(2π).
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
