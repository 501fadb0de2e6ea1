package cli

import (
	urfave "github.com/urfave/cli/v2"

	"github.com/MikeSquared-Agency/Journal/internal/roster"
)

var (
	outFlag = &urfave.StringFlag{
		Name:     "out",
		Usage:    "Where to write the roster YAML",
		Required: true,
	}

	studentsFlag = &urfave.IntFlag{
		Name:  "students",
		Usage: "Students per class",
		Value: roster.DefaultDemoOptions().Students,
	}

	parallelFlag = &urfave.StringSliceFlag{
		Name:  "parallel",
		Usage: "Grade levels to create classes for (repeatable)",
	}
)

var demoRosterCmd = &urfave.Command{
	Name:            "demo-roster",
	Usage:           "Write a synthetic roster with fake students for dry runs",
	HideHelpCommand: true,
	Flags: []urfave.Flag{
		outFlag,
		studentsFlag,
		parallelFlag,
		seedFlag,
	},
	Action: cmdDemoRoster,
}

func cmdDemoRoster(c *urfave.Context) error {
	app := getConfig(c)

	opts := roster.DefaultDemoOptions()
	opts.Students = c.Int(studentsFlag.Name)
	if p := c.StringSlice(parallelFlag.Name); len(p) > 0 {
		opts.Parallels = p
	}

	rng, seed := newSource(c, app.Config)
	r, err := roster.Demo(opts, rng)
	if err != nil {
		return err
	}
	path := c.String(outFlag.Name)
	if err := r.Save(path); err != nil {
		return err
	}
	app.Logger.Info("wrote demo roster", "path", path, "classes", len(r.Classes), "seed", seed)
	return nil
}
