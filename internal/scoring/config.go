package scoring

import "math"

// Generation holds the tuning knobs for the random draws. A nil SD means the
// spread is derived from the width of the interval being sampled (width / 4).
type Generation struct {
	TotalMeanOffset float64  `json:"total_percent_mean_offset" yaml:"total_percent_mean_offset"`
	TotalSD         *float64 `json:"total_percent_sd,omitempty" yaml:"total_percent_sd,omitempty"`
	SplitMeanOffset float64  `json:"split_mean_offset" yaml:"split_mean_offset"`
	SplitSD         *float64 `json:"split_sd,omitempty" yaml:"split_sd,omitempty"`
	PenaltyMin      float64  `json:"penalty_min" yaml:"penalty_min"`
	PenaltyMax      float64  `json:"penalty_max" yaml:"penalty_max"`
}

// Validate checks SDs and the penalty/bonus range.
func (g Generation) Validate() error {
	if g.TotalSD != nil && (*g.TotalSD < 0 || math.IsNaN(*g.TotalSD)) {
		return invalidConfig("total percent sd must be >= 0, got %v", *g.TotalSD)
	}
	if g.SplitSD != nil && (*g.SplitSD < 0 || math.IsNaN(*g.SplitSD)) {
		return invalidConfig("split sd must be >= 0, got %v", *g.SplitSD)
	}
	if g.PenaltyMin > g.PenaltyMax {
		return invalidConfig("penalty/bonus range inverted: %.2f > %.2f", g.PenaltyMin, g.PenaltyMax)
	}
	return nil
}

func (g Generation) totalSD(b GradeBand) float64 {
	if g.TotalSD != nil {
		return *g.TotalSD
	}
	return (b.Max - b.Min) / 4
}

func (g Generation) splitSD(lo, hi float64) float64 {
	if g.SplitSD != nil {
		return *g.SplitSD
	}
	return (hi - lo) / 4
}

// Config is the immutable input of the synthesizer.
type Config struct {
	Bands       GradeBands `json:"grade_bands" yaml:"grade_bands"`
	Weights     Weights    `json:"weights" yaml:"weights"`
	NumMidterms int        `json:"num_midterms" yaml:"num_midterms"`
	// MaxScores holds one maximum per periodic component followed by the
	// final component's maximum.
	MaxScores  []int      `json:"max_scores" yaml:"max_scores"`
	Generation Generation `json:"generation" yaml:"generation"`
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if err := c.Bands.Validate(); err != nil {
		return err
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.NumMidterms < 0 {
		return invalidConfig("num_midterms must be >= 0, got %d", c.NumMidterms)
	}
	if len(c.MaxScores) != c.NumMidterms+1 {
		return invalidConfig("max_scores has %d entries, want num_midterms+1 = %d", len(c.MaxScores), c.NumMidterms+1)
	}
	for i, m := range c.MaxScores {
		if m < 0 {
			return invalidConfig("max_scores[%d] is negative: %d", i, m)
		}
	}
	if c.Weights.HasFinal() && c.FinalMax() == 0 {
		return invalidConfig("final weight is %.2f but final max score is 0", c.Weights.Final)
	}
	return c.Generation.Validate()
}

// PeriodicMax returns the per-component maxima of the periodic components.
func (c Config) PeriodicMax() []int {
	return c.MaxScores[:c.NumMidterms]
}

// FinalMax returns the maximum raw score of the final component.
func (c Config) FinalMax() int {
	return c.MaxScores[len(c.MaxScores)-1]
}

// PeriodicCapacity returns the combined maximum of all periodic components.
func (c Config) PeriodicCapacity() int {
	total := 0
	for _, m := range c.PeriodicMax() {
		total += m
	}
	return total
}

// ForMidterms derives a config with only the first n periodic components.
// Subjects with one weekly hour carry a single periodic assessment.
func (c Config) ForMidterms(n int) (Config, error) {
	if n < 0 || n > c.NumMidterms {
		return Config{}, invalidConfig("cannot derive %d midterms from a config with %d", n, c.NumMidterms)
	}
	if len(c.MaxScores) != c.NumMidterms+1 {
		return Config{}, invalidConfig("max_scores has %d entries, want num_midterms+1 = %d", len(c.MaxScores), c.NumMidterms+1)
	}
	out := c
	out.NumMidterms = n
	out.MaxScores = append(append([]int(nil), c.MaxScores[:n]...), c.FinalMax())
	out.Bands = append(GradeBands(nil), c.Bands...)
	return out, nil
}
