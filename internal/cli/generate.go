package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	urfave "github.com/urfave/cli/v2"

	"github.com/MikeSquared-Agency/Journal/internal/journal"
	"github.com/MikeSquared-Agency/Journal/internal/metrics"
	"github.com/MikeSquared-Agency/Journal/internal/report"
	"github.com/MikeSquared-Agency/Journal/internal/roster"
)

var (
	rosterFlag = &urfave.StringFlag{
		Name:  "roster",
		Usage: "Path to the YAML roster (overrides paths.roster)",
	}

	gradesFlag = &urfave.StringFlag{
		Name:  "grades",
		Usage: "Path to the XLSX grades workbook (optional, overrides paths.grades)",
	}

	templateFlag = &urfave.StringFlag{
		Name:  "template",
		Usage: "Path to the XLSX journal template (overrides paths.template)",
	}

	outputDirFlag = &urfave.StringFlag{
		Name:  "output-dir",
		Usage: "Directory for generated workbooks (overrides paths.output_dir)",
	}

	classFlag = &urfave.StringSliceFlag{
		Name:  "class",
		Usage: "Only generate these classes (repeatable)",
	}

	metricsFlag = &urfave.StringFlag{
		Name:  "metrics-textfile",
		Usage: "Write run metrics to this file in Prometheus text format",
	}
)

var generateCmd = &urfave.Command{
	Name:            "generate",
	Usage:           "Generate journal workbooks from a roster",
	HideHelpCommand: true,
	Flags: []urfave.Flag{
		rosterFlag,
		gradesFlag,
		templateFlag,
		outputDirFlag,
		classFlag,
		metricsFlag,
		seedFlag,
	},
	Action: cmdGenerate,
}

type generateResult struct {
	RunID   string          `json:"run_id" yaml:"run_id"`
	Seed    uint64          `json:"seed" yaml:"seed"`
	Summary journal.Summary `json:"summary" yaml:"summary"`
}

func cmdGenerate(c *urfave.Context) error {
	app := getConfig(c)
	cfg := app.Config
	overridePath(c, rosterFlag.Name, &cfg.Paths.Roster)
	overridePath(c, gradesFlag.Name, &cfg.Paths.Grades)
	overridePath(c, templateFlag.Name, &cfg.Paths.Template)
	overridePath(c, outputDirFlag.Name, &cfg.Paths.OutputDir)
	overridePath(c, metricsFlag.Name, &cfg.Metrics.Textfile)

	runID := uuid.NewString()
	logger := app.Logger.With("run_id", runID)

	r, err := roster.Load(cfg.Paths.Roster)
	if err != nil {
		return err
	}
	if cfg.Paths.Grades != "" {
		if err := roster.ImportGrades(cfg.Paths.Grades, r, logger); err != nil {
			return err
		}
	}
	classes := filterClasses(r.Classes, c.StringSlice(classFlag.Name))
	if len(classes) == 0 {
		return fmt.Errorf("no classes to generate")
	}

	rng, seed := newSource(c, cfg)
	rec := metrics.NewRecorder()
	writer := report.NewXLSXWriter(cfg, runID, logger)
	gen, err := journal.NewGenerator(cfg, writer, rng, rec, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting generation", "seed", seed, "classes", len(classes))
	sum, err := gen.Run(ctx, classes)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn("failed to write metrics", "error", err)
	}

	return encode(c.App.Writer, app.Format, generateResult{RunID: runID, Seed: seed, Summary: sum})
}

func overridePath(c *urfave.Context, flag string, dst *string) {
	if v := c.String(flag); v != "" {
		*dst = v
	}
}

func filterClasses(classes []*roster.Class, names []string) []*roster.Class {
	if len(names) == 0 {
		return classes
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []*roster.Class
	for _, cl := range classes {
		if want[cl.Name] {
			out = append(out, cl)
		}
	}
	return out
}
