package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Journal/internal/config"
	"github.com/MikeSquared-Agency/Journal/internal/logging"
	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

const (
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	configFlag = &urfave.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config file (optional, defaults built in)",
		EnvVars: []string{"JOURNAL_CONFIG"},
	}

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	seedFlag = &urfave.Uint64Flag{
		Name:  "seed",
		Usage: "Random seed; 0 derives one from the clock",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Config *config.Config
	Logger *slog.Logger
	Format string
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 "journal",
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "Back-fill school journals with plausible component scores",
		Flags: []urfave.Flag{
			configFlag,
			debugFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			generateCmd,
			sampleCmd,
			validateCmd,
			demoRosterCmd,
		},
		Before: func(c *urfave.Context) error {
			cfg, err := config.Load(c.String(configFlag.Name))
			if err != nil {
				return err
			}
			if c.Bool(debugFlag.Name) {
				cfg.Logging.Level = "debug"
			}

			format := formatJSON
			if f := c.String(formatFlag.Name); f == formatYAML || f == "yml" {
				format = formatYAML
			}

			logger := logging.New(c.App.ErrWriter, cfg.Logging.Format, cfg.Logging.Level)
			slog.SetDefault(logger)

			c.App.Metadata[appConfigKey] = &appConfig{
				Config: cfg,
				Logger: logger,
				Format: format,
			}
			return nil
		},
	}
}

// resolveSeed applies the --seed flag over the configured seed and replaces
// 0 with a clock-derived value.
func resolveSeed(c *urfave.Context, cfg *config.Config) uint64 {
	seed := cfg.Run.Seed
	if c.IsSet(seedFlag.Name) {
		seed = c.Uint64(seedFlag.Name)
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return seed
}

func newSource(c *urfave.Context, cfg *config.Config) (scoring.RandomSource, uint64) {
	seed := resolveSeed(c, cfg)
	return scoring.NewSource(seed), seed
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
