package calculator

import "SignalSentinel/internal/model"

// Cross is the direction in which series A crossed series B.
type Cross string

const (
	CrossNone Cross = "none"
	CrossUp   Cross = "up"
	CrossDown Cross = "down"
)

// DetectCross compares the previous and current aligned values of A and B.
func DetectCross(prevA, prevB, currA, currB float64) Cross {
	for _, v := range []float64{prevA, prevB, currA, currB} {
		if !model.Valid(v) {
			return CrossNone
		}
	}
	switch {
	case prevA <= prevB && currA > currB:
		return CrossUp
	case prevA >= prevB && currA < currB:
		return CrossDown
	default:
		return CrossNone
	}
}

// DetectSeriesCross looks at the last two points of two aligned series.
func DetectSeriesCross(a, b []float64) Cross {
	n := len(a)
	if n < 2 || len(b) != n {
		return CrossNone
	}
	return DetectCross(a[n-2], b[n-2], a[n-1], b[n-1])
}
