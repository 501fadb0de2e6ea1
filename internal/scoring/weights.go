package scoring

import (
	"math"
	"sort"
)

// Weights bounds the percentage each component type can contribute to the
// total. A zero Final weight means the term has no final exam.
type Weights struct {
	Periodic float64 `json:"periodic" yaml:"periodic"`
	Final    float64 `json:"final" yaml:"final"`
}

// DefaultWeights returns the even periodic/final split used by most subjects.
func DefaultWeights() Weights {
	return Weights{Periodic: 50, Final: 50}
}

// Sum returns the total of both weights.
func (w Weights) Sum() float64 {
	return w.Periodic + w.Final
}

// HasFinal reports whether a final component exists.
func (w Weights) HasFinal() bool {
	return w.Final > 0
}

// Validate checks that weights are non-negative and not both zero.
func (w Weights) Validate() error {
	if w.Periodic < 0 || w.Final < 0 {
		return invalidConfig("negative weight: periodic=%.2f final=%.2f", w.Periodic, w.Final)
	}
	if w.Sum() <= 0 {
		return invalidConfig("periodic and final weights are both zero")
	}
	return nil
}

// GradeBand maps an aggregate mark to the inclusive percentage interval it
// implies.
type GradeBand struct {
	Mark int     `json:"mark" yaml:"mark"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// Midpoint returns the centre of the band.
func (b GradeBand) Midpoint() float64 {
	return (b.Min + b.Max) / 2
}

// GradeBands is the full mark → interval table.
type GradeBands []GradeBand

// DefaultGradeBands returns the five-point scale bands.
func DefaultGradeBands() GradeBands {
	return GradeBands{
		{Mark: 2, Min: 0, Max: 39.99},
		{Mark: 3, Min: 40, Max: 64.99},
		{Mark: 4, Min: 65, Max: 84.99},
		{Mark: 5, Min: 85, Max: 100},
	}
}

// Lookup returns the band for mark.
func (bs GradeBands) Lookup(mark int) (GradeBand, bool) {
	for _, b := range bs {
		if b.Mark == mark {
			return b, true
		}
	}
	return GradeBand{}, false
}

// Marks returns the mark of every band.
func (bs GradeBands) Marks() []int {
	marks := make([]int, len(bs))
	for i, b := range bs {
		marks[i] = b.Mark
	}
	return marks
}

// Has reports whether mark has a band.
func (bs GradeBands) Has(mark int) bool {
	_, ok := bs.Lookup(mark)
	return ok
}

// Validate checks that every band is well formed and that bands ordered by
// mark are non-overlapping and increasing.
func (bs GradeBands) Validate() error {
	if len(bs) == 0 {
		return invalidConfig("no grade bands configured")
	}
	sorted := append(GradeBands(nil), bs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Mark < sorted[j].Mark })

	for i, b := range sorted {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) {
			return invalidConfig("band for mark %d has NaN bounds", b.Mark)
		}
		if b.Min > b.Max {
			return invalidConfig("band for mark %d is inverted: %.2f > %.2f", b.Mark, b.Min, b.Max)
		}
		if b.Min < 0 || b.Max > 100 {
			return invalidConfig("band for mark %d outside 0-100: [%.2f, %.2f]", b.Mark, b.Min, b.Max)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.Mark == b.Mark {
			return invalidConfig("duplicate band for mark %d", b.Mark)
		}
		if b.Min <= prev.Max {
			return invalidConfig("band for mark %d overlaps mark %d", b.Mark, prev.Mark)
		}
	}
	return nil
}
