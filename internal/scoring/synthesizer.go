package scoring

import "math"

// ScoreBreakdown is the fabricated component detail for one known aggregate
// mark. FinalScore and ActualFinalPercent are nil when the term has no final
// component; zero is a valid score and never stands in for "not applicable".
type ScoreBreakdown struct {
	Mark                    int      `json:"mark" yaml:"mark"`
	TotalPercent            float64  `json:"total_percent" yaml:"total_percent"`
	FinalScore              *int     `json:"final_score" yaml:"final_score"`
	PeriodicScores          []int    `json:"periodic_scores" yaml:"periodic_scores"`
	AdjustedPeriodicPercent float64  `json:"adjusted_periodic_percent" yaml:"adjusted_periodic_percent"`
	ActualFinalPercent      *float64 `json:"actual_final_percent" yaml:"actual_final_percent"`
	PenaltyBonus            float64  `json:"penalty_bonus" yaml:"penalty_bonus"`
	TargetSum               int      `json:"target_sum" yaml:"target_sum"`
}

// PeriodicSum returns the sum of the periodic component scores.
func (b ScoreBreakdown) PeriodicSum() int {
	total := 0
	for _, s := range b.PeriodicScores {
		total += s
	}
	return total
}

// Synthesizer reverse-engineers component scores from aggregate marks using a
// validated configuration.
type Synthesizer struct {
	cfg Config
}

// NewSynthesizer validates cfg and returns a Synthesizer bound to a private
// copy of it.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Bands = append(GradeBands(nil), cfg.Bands...)
	cfg.MaxScores = append([]int(nil), cfg.MaxScores...)
	return &Synthesizer{cfg: cfg}, nil
}

// Synthesize validates cfg and synthesizes one breakdown for mark. Invalid
// configuration is reported before anything is drawn from rng.
func Synthesize(mark int, cfg Config, rng RandomSource) (ScoreBreakdown, error) {
	s, err := NewSynthesizer(cfg)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	return s.Synthesize(mark, rng)
}

// Config returns the configuration the synthesizer was built with.
func (s *Synthesizer) Config() Config {
	return s.cfg
}

// Synthesize draws a total percentage inside the mark's band, splits it
// between the final and periodic components, converts the final share to an
// integer score and carries the rounding residual into the periodic share,
// then applies a penalty/bonus and decomposes the periodic share into integer
// component scores.
func (s *Synthesizer) Synthesize(mark int, rng RandomSource) (ScoreBreakdown, error) {
	band, ok := s.cfg.Bands.Lookup(mark)
	if !ok {
		return ScoreBreakdown{}, &InvalidMarkError{Mark: mark}
	}
	gen := s.cfg.Generation
	w := s.cfg.Weights

	mean := band.Midpoint() + gen.TotalMeanOffset
	total := snapToBand(clamp(normal(rng, mean, gen.totalSD(band)), band.Min, band.Max), band)

	out := ScoreBreakdown{Mark: mark}

	var adjusted float64
	if !w.HasFinal() {
		adjusted = clamp(total, 0, w.Periodic)
	} else {
		lo := math.Max(0, total-w.Periodic)
		hi := math.Min(w.Final, total)
		if lo > hi {
			// weights sum below the band; the final takes all it can
			lo = hi
		}
		mid := (lo+hi)/2 + gen.SplitMeanOffset
		drawn := clamp(normal(rng, mid, gen.splitSD(lo, hi)), lo, hi)
		periodic := total - drawn

		finalMax := s.cfg.FinalMax()
		minRaw, maxRaw := feasibleFinalRange(lo, hi, w.Final, finalMax)
		raw := clampInt(int(math.RoundToEven(drawn/w.Final*float64(finalMax))), minRaw, maxRaw)
		actual := float64(raw) / float64(finalMax) * w.Final

		adjusted = clamp(periodic+(drawn-actual), 0, w.Periodic)

		actualPct := round1(actual)
		out.FinalScore = &raw
		out.ActualFinalPercent = &actualPct
	}

	bonus := uniform(rng, gen.PenaltyMin, gen.PenaltyMax)
	rawPeriodic := clamp(adjusted-bonus, 0, w.Periodic)

	out.TargetSum = s.targetSum(rawPeriodic)
	out.PeriodicScores = distribute(out.TargetSum, s.cfg.PeriodicMax(), rng)
	out.TotalPercent = total
	out.AdjustedPeriodicPercent = round1(adjusted)
	out.PenaltyBonus = round1(bonus)
	return out, nil
}

func (s *Synthesizer) targetSum(rawPeriodic float64) int {
	capacity := s.cfg.PeriodicCapacity()
	if s.cfg.Weights.Periodic <= 0 || capacity == 0 {
		return 0
	}
	return int(math.RoundToEven(rawPeriodic / s.cfg.Weights.Periodic * float64(capacity)))
}

// feasibleFinalRange returns the integer final scores whose percentage lies
// inside [lo, hi], so the residual carried into the periodic share never
// pushes it outside [0, periodic weight].
func feasibleFinalRange(lo, hi, weight float64, finalMax int) (int, int) {
	const eps = 1e-9
	minRaw := clampInt(int(math.Ceil(lo/weight*float64(finalMax)-eps)), 0, finalMax)
	maxRaw := clampInt(int(math.Floor(hi/weight*float64(finalMax)+eps)), 0, finalMax)
	if minRaw > maxRaw {
		minRaw = maxRaw
	}
	return minRaw, maxRaw
}

// distribute hands out target points one at a time, each to a uniformly
// chosen component that still has capacity, and stops early once every
// component is full. The loop is O(target); target is bounded by the sum of
// the maxima, which is small.
func distribute(target int, maxes []int, rng RandomSource) []int {
	scores := make([]int, len(maxes))
	available := make([]int, 0, len(maxes))
	for range target {
		available = available[:0]
		for i, m := range maxes {
			if scores[i] < m {
				available = append(available, i)
			}
		}
		if len(available) == 0 {
			break
		}
		scores[available[rng.IntN(len(available))]]++
	}
	return scores
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// snapToBand rounds x to the reporting precision without leaving the band, so
// a total drawn at 39.99 is reported as 39.9 rather than 40.0. Bands too narrow
// to hold a one-decimal value keep x as drawn.
func snapToBand(x float64, b GradeBand) float64 {
	r := round1(x)
	if r > b.Max {
		r = math.Floor(b.Max*10) / 10
	}
	if r < b.Min {
		r = math.Ceil(b.Min*10) / 10
	}
	if r < b.Min || r > b.Max {
		return x
	}
	return r
}
