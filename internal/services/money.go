package services

import "github.com/shopspring/decimal"

// round2 rounds a monetary value to 2 decimal places, half away from zero
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// wholeCents reports whether v has at most 2 decimal places, the precision
// every stored amount column keeps
func wholeCents(v float64) bool {
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(2))
}
