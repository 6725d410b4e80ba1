package linear

import "math"

// OddsFloor bounds the odds denominator so probabilities at 1 never divide by zero.
const OddsFloor = 1e-9

// Sigmoid maps a log-odds value onto (0, 1).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Odds converts a probability to odds, flooring the denominator at OddsFloor.
func Odds(p float64) float64 {
	return p / math.Max(1-p, OddsFloor)
}

// OddsRatio returns odds(p) / odds(reference). The reference odds are floored
// at OddsFloor so the ratio stays finite when the reference underflows.
func OddsRatio(p, reference float64) float64 {
	return Odds(p) / math.Max(Odds(reference), OddsFloor)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
