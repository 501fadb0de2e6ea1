package scoring

import (
	"math"
	"sort"
)

// NoCeiling disables the ceiling passed to DistributionFor.
const NoCeiling = 0

// DailyBand selects a primary daily grade when MinBonus <= bonus < MaxBonus.
type DailyBand struct {
	Grade    int     `json:"grade" yaml:"grade"`
	MinBonus float64 `json:"min_bonus" yaml:"min_bonus"`
	MaxBonus float64 `json:"max_bonus" yaml:"max_bonus"`
}

// DailyGrades configures the cosmetic per-lesson grades. Tables maps a
// primary grade to a weighted table of the grades a lesson may receive.
type DailyGrades struct {
	Bands        []DailyBand             `json:"bands" yaml:"bands"`
	DefaultGrade int                     `json:"default_grade" yaml:"default_grade"`
	MinGrade     int                     `json:"min_grade" yaml:"min_grade"`
	MaxGrade     int                     `json:"max_grade" yaml:"max_grade"`
	Tables       map[int]map[int]float64 `json:"tables" yaml:"tables"`
	Density      float64                 `json:"density" yaml:"density"`
}

// DefaultDailyGrades returns the hand-tuned tables for a ten-point lesson
// scale keyed by a five-point primary grade.
func DefaultDailyGrades() DailyGrades {
	return DailyGrades{
		Bands: []DailyBand{
			{Grade: 2, MinBonus: -3, MaxBonus: -2},
			{Grade: 3, MinBonus: -2, MaxBonus: 0},
			{Grade: 4, MinBonus: 0, MaxBonus: 4},
			{Grade: 5, MinBonus: 4, MaxBonus: 7},
		},
		DefaultGrade: 4,
		MinGrade:     2,
		MaxGrade:     10,
		Tables: map[int]map[int]float64{
			5: {10: 0.75, 9: 0.1, 8: 0.06, 7: 0.04, 6: 0.04, 5: 0.007, 4: 0.003},
			4: {10: 0.05, 9: 0.1, 8: 0.65, 7: 0.1, 6: 0.05, 5: 0.044, 4: 0.005, 3: 0.001},
			3: {10: 0.01, 9: 0.015, 8: 0.025, 7: 0.05, 6: 0.1, 5: 0.65, 4: 0.1, 3: 0.045, 2: 0.005},
			2: {10: 0.002, 9: 0.003, 8: 0.005, 7: 0.015, 6: 0.25, 5: 0.05, 4: 0.1, 3: 0.65, 2: 0.1},
		},
		Density: 0.66,
	}
}

// Validate checks that every primary grade the bands can select has a table
// and that every table is usable for weighted sampling.
func (d DailyGrades) Validate() error {
	if d.MinGrade > d.MaxGrade {
		return invalidConfig("daily grade range inverted: %d > %d", d.MinGrade, d.MaxGrade)
	}
	if d.Density < 0 || d.Density > 1 || math.IsNaN(d.Density) {
		return invalidConfig("daily grade density must be within [0, 1], got %v", d.Density)
	}
	if _, ok := d.Tables[d.DefaultGrade]; !ok {
		return invalidConfig("no daily table for default grade %d", d.DefaultGrade)
	}
	for _, b := range d.Bands {
		if b.MinBonus > b.MaxBonus {
			return invalidConfig("daily band for grade %d is inverted", b.Grade)
		}
		if _, ok := d.Tables[b.Grade]; !ok {
			return invalidConfig("no daily table for grade %d", b.Grade)
		}
	}
	for primary, table := range d.Tables {
		var total float64
		for grade, weight := range table {
			if grade < d.MinGrade || grade > d.MaxGrade {
				return invalidConfig("daily table %d has grade %d outside [%d, %d]", primary, grade, d.MinGrade, d.MaxGrade)
			}
			if weight < 0 || math.IsNaN(weight) {
				return invalidConfig("daily table %d has negative weight for grade %d", primary, grade)
			}
			total += weight
		}
		if total <= 0 {
			return invalidConfig("daily table %d has no positive weight", primary)
		}
	}
	return nil
}

// ValidateCeilings checks that each mark usable as a ceiling has a table at
// or below it, so a capped primary grade never exceeds the mark.
func (d DailyGrades) ValidateCeilings(marks []int) error {
	for _, mark := range marks {
		if mark == NoCeiling {
			continue
		}
		if _, ok := d.tableAtMost(mark); !ok {
			return invalidConfig("no daily table at or below mark %d", mark)
		}
	}
	return nil
}

// PrimaryGrade picks the primary daily grade for bonus, capped at ceiling
// unless ceiling is NoCeiling.
func (d DailyGrades) PrimaryGrade(bonus float64, ceiling int) int {
	primary := d.DefaultGrade
	for _, b := range d.Bands {
		if b.MinBonus <= bonus && bonus < b.MaxBonus {
			primary = b.Grade
			break
		}
	}
	if ceiling == NoCeiling || primary <= ceiling {
		return primary
	}
	return d.highestTableAtMost(ceiling)
}

// highestTableAtMost returns the highest primary with a table that does not
// exceed limit. ValidateCeilings rules out the case where none exists; the
// lowest primary is returned then.
func (d DailyGrades) highestTableAtMost(limit int) int {
	if best, ok := d.tableAtMost(limit); ok {
		return best
	}
	lowest := math.MaxInt
	for primary := range d.Tables {
		lowest = min(lowest, primary)
	}
	return lowest
}

func (d DailyGrades) tableAtMost(limit int) (int, bool) {
	best, ok := math.MinInt, false
	for primary := range d.Tables {
		if primary <= limit && primary > best {
			best, ok = primary, true
		}
	}
	return best, ok
}

// Distribution is a weighted table of lesson grades centred on Primary.
// Weights need not be normalised.
type Distribution struct {
	Primary int             `json:"primary" yaml:"primary"`
	Weights map[int]float64 `json:"weights" yaml:"weights"`
}

// DistributionFor maps a penalty/bonus value to the weighted lesson-grade
// table. A non-zero ceiling keeps the primary grade at or below the known
// term mark.
func (d DailyGrades) DistributionFor(bonus float64, ceiling int) Distribution {
	primary := d.PrimaryGrade(bonus, ceiling)
	table := d.Tables[primary]
	weights := make(map[int]float64, len(table))
	for g, w := range table {
		weights[g] = w
	}
	return Distribution{Primary: primary, Weights: weights}
}

// Total returns the sum of all weights.
func (d Distribution) Total() float64 {
	var total float64
	for _, w := range d.Weights {
		total += w
	}
	return total
}

// Sample makes one weighted choice. Grades are visited in ascending order so
// equal random sequences give equal results.
func (d Distribution) Sample(rng RandomSource) int {
	grades := make([]int, 0, len(d.Weights))
	for g := range d.Weights {
		grades = append(grades, g)
	}
	sort.Ints(grades)

	var total float64
	for _, g := range grades {
		total += d.Weights[g]
	}
	r := rng.Float64() * total
	var acc float64
	for _, g := range grades {
		acc += d.Weights[g]
		if r < acc {
			return g
		}
	}
	// r landed on the upper edge through float rounding
	for i := len(grades) - 1; i >= 0; i-- {
		if d.Weights[grades[i]] > 0 {
			return grades[i]
		}
	}
	return d.Primary
}
