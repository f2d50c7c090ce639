package mathx

import "golang.org/x/exp/constraints"

// RoundShift returns round(v / 2^n) for unsigned v: (v + 2^(n-1)) >> n.
// The addition wraps in T, matching fixed-width firmware accumulators.
func RoundShift[T constraints.Unsigned](v T, n uint) T {
	if n == 0 {
		return v
	}
	return (v + T(1)<<(n-1)) >> n
}

// RoundDiv returns floor((a + b/2)/b), classic rounding for positives.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}
