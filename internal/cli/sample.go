package cli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"

	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

var (
	markFlag = &urfave.IntFlag{
		Name:     "mark",
		Usage:    "Aggregate mark to synthesize components for",
		Required: true,
	}

	countFlag = &urfave.IntFlag{
		Name:  "count",
		Usage: "Number of breakdowns to draw",
		Value: 1,
	}

	midtermsFlag = &urfave.IntFlag{
		Name:  "midterms",
		Usage: "Use only the first N periodic components (optional)",
		Value: -1,
	}

	dailyFlag = &urfave.BoolFlag{
		Name:  "daily",
		Usage: "Include the daily grade distribution of each breakdown",
	}
)

var sampleCmd = &urfave.Command{
	Name:            "sample",
	Usage:           "Synthesize score breakdowns for one mark",
	HideHelpCommand: true,
	Flags: []urfave.Flag{
		markFlag,
		countFlag,
		midtermsFlag,
		dailyFlag,
		seedFlag,
	},
	Action: cmdSample,
}

type sampleItem struct {
	scoring.ScoreBreakdown `yaml:",inline"`
	Daily                  *scoring.Distribution `json:"daily,omitempty" yaml:"daily,omitempty"`
}

type sampleResult struct {
	Seed    uint64       `json:"seed" yaml:"seed"`
	Samples []sampleItem `json:"samples" yaml:"samples"`
}

func cmdSample(c *urfave.Context) error {
	app := getConfig(c)
	cfg := app.Config

	count := c.Int(countFlag.Name)
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}

	sc := cfg.SynthesizerConfig()
	if n := c.Int(midtermsFlag.Name); n >= 0 {
		derived, err := sc.ForMidterms(n)
		if err != nil {
			return err
		}
		sc = derived
	}
	synth, err := scoring.NewSynthesizer(sc)
	if err != nil {
		return err
	}
	daily := cfg.DailyGrades()
	if c.Bool(dailyFlag.Name) {
		if err := daily.Validate(); err != nil {
			return err
		}
		if err := daily.ValidateCeilings(sc.Bands.Marks()); err != nil {
			return err
		}
	}

	rng, seed := newSource(c, cfg)
	mark := c.Int(markFlag.Name)
	out := sampleResult{Seed: seed, Samples: make([]sampleItem, 0, count)}
	for range count {
		b, err := synth.Synthesize(mark, rng)
		if err != nil {
			return err
		}
		item := sampleItem{ScoreBreakdown: b}
		if c.Bool(dailyFlag.Name) {
			d := daily.DistributionFor(b.PenaltyBonus, b.Mark)
			item.Daily = &d
		}
		out.Samples = append(out.Samples, item)
	}
	app.Logger.Debug("sampled breakdowns", "mark", mark, "count", count, "seed", seed)
	return encode(c.App.Writer, app.Format, out)
}
