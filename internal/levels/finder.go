package levels

import (
	"fmt"
	"math"
	"sort"

	"SignalSentinel/internal/model"
)

const (
	defaultExtremaOrder     = 4
	defaultClusterTolerance = 0.006
)

// Finder extracts support and resistance levels from a close-price sequence.
type Finder struct {
	order     int
	tolerance float64
}

// NewFinder creates a Finder. order is the number of neighbours compared on each side,
// tolerance the relative distance that still joins a cluster (0.006 = 0.6%).
func NewFinder(order int, tolerance float64) (*Finder, error) {
	if order <= 0 {
		return nil, fmt.Errorf("extrema order must be positive, got %d", order)
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("cluster tolerance must be positive, got %g", tolerance)
	}
	return &Finder{order: order, tolerance: tolerance}, nil
}

// DefaultFinder uses order 4 and 0.6% tolerance.
func DefaultFinder() *Finder {
	return &Finder{order: defaultExtremaOrder, tolerance: defaultClusterTolerance}
}

// Find returns clustered supports (ascending) and resistances (descending).
// Sequences shorter than 2*order+1 yield an empty set.
func (f *Finder) Find(closes []float64) model.LevelSet {
	if len(closes) < 2*f.order+1 {
		return model.LevelSet{}
	}
	lows, highs := f.extrema(closes)

	var set model.LevelSet
	for _, p := range Cluster(lows, f.tolerance) {
		set.Supports = append(set.Supports, model.Level{Price: p, Kind: model.LevelSupport})
	}
	clustered := Cluster(highs, f.tolerance)
	for i := len(clustered) - 1; i >= 0; i-- {
		set.Resistances = append(set.Resistances, model.Level{Price: clustered[i], Kind: model.LevelResistance})
	}
	return set
}

// extrema scans each index with a full symmetric window and reports window minima and maxima.
func (f *Finder) extrema(closes []float64) (lows, highs []float64) {
	n := len(closes)
	for i := f.order; i < n-f.order; i++ {
		v := closes[i]
		lo, hi := math.Inf(1), math.Inf(-1)
		for j := i - f.order; j <= i+f.order; j++ {
			lo = math.Min(lo, closes[j])
			hi = math.Max(hi, closes[j])
		}
		if v == lo {
			lows = append(lows, v)
		}
		if v == hi {
			highs = append(highs, v)
		}
	}
	return lows, highs
}

// Cluster groups values in a single ascending pass. A value joins the current group when its
// relative distance to the group's last accepted value is within tolerance. Each group
// collapses to its mean. The result is ascending.
func Cluster(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	group := []float64{sorted[0]}
	for _, v := range sorted[1:] {
		last := group[len(group)-1]
		if math.Abs(v-last)/last <= tolerance {
			group = append(group, v)
			continue
		}
		out = append(out, mean(group))
		group = []float64{v}
	}
	return append(out, mean(group))
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
