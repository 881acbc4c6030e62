package types

import "fmt"

// Money is an amount in pesewas (GH₵ minor units). All ledger math is
// integer arithmetic so settlement splits conserve balance exactly.
type Money int64

// Fractional rates (the solo multiplier) are stored in basis points:
// 10000 = 1x, 25000 = 2.5x.
const BasisPointScale = 10000

// MulBasisPoints scales the amount by a basis-point multiplier,
// rounding half-up.
func (m Money) MulBasisPoints(bp int64) Money {
	v := int64(m) * bp
	return Money((v + BasisPointScale/2) / BasisPointScale)
}

// MulSeats multiplies a per-seat amount by a seat count.
func (m Money) MulSeats(n int) Money {
	return m * Money(n)
}

// Cedis formats the amount as whole cedis with two decimal places.
func (m Money) Cedis() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%sGH₵%d.%02d", sign, v/100, v%100)
}
