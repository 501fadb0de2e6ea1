package cli

import (
	urfave "github.com/urfave/cli/v2"

	"github.com/MikeSquared-Agency/Journal/internal/roster"
)

var validateCmd = &urfave.Command{
	Name:            "validate",
	Usage:           "Check the configuration and, when given, the roster",
	HideHelpCommand: true,
	Flags: []urfave.Flag{
		rosterFlag,
		gradesFlag,
	},
	Action: cmdValidate,
}

type validateResult struct {
	Config   string `json:"config" yaml:"config"`
	Classes  int    `json:"classes,omitempty" yaml:"classes,omitempty"`
	Students int    `json:"students,omitempty" yaml:"students,omitempty"`
	Subjects int    `json:"subjects,omitempty" yaml:"subjects,omitempty"`
}

func cmdValidate(c *urfave.Context) error {
	app := getConfig(c)
	if err := app.Config.Validate(); err != nil {
		return err
	}
	res := validateResult{Config: "ok"}

	path := c.String(rosterFlag.Name)
	if path != "" {
		r, err := roster.Load(path)
		if err != nil {
			return err
		}
		if g := c.String(gradesFlag.Name); g != "" {
			if err := roster.ImportGrades(g, r, app.Logger); err != nil {
				return err
			}
		}
		res.Classes = len(r.Classes)
		for _, cl := range r.Classes {
			res.Students += len(cl.Students)
			res.Subjects += len(cl.Subjects)
		}
	}
	return encode(c.App.Writer, app.Format, res)
}
