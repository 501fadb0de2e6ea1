package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

type Config struct {
	Scoring ScoringConfig `yaml:"scoring"`
	Daily   DailyConfig   `yaml:"daily"`
	Layout  LayoutConfig  `yaml:"layout"`
	Paths   PathsConfig   `yaml:"paths"`
	Run     RunConfig     `yaml:"run"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type ScoringConfig struct {
	GradeBands             []scoring.GradeBand `yaml:"grade_bands"`
	Weights                scoring.Weights     `yaml:"weights"`
	NumMidterms            int                 `yaml:"num_midterms"`
	MaxScores              []int               `yaml:"max_scores"`
	PenaltyBonusRange      [2]float64          `yaml:"penalty_bonus_range"`
	TotalPercentMeanOffset float64             `yaml:"total_percent_mean_offset"`
	TotalPercentSD         *float64            `yaml:"total_percent_sd"`
	SplitMeanOffset        float64             `yaml:"split_mean_offset"`
	SplitSD                *float64            `yaml:"split_sd"`
	// SingleHourMidterms is the periodic component count for subjects taught
	// once a week.
	SingleHourMidterms int `yaml:"single_hour_midterms"`
}

type DailyConfig struct {
	Density      float64                 `yaml:"density"`
	Bands        []scoring.DailyBand     `yaml:"bands"`
	DefaultGrade int                     `yaml:"default_grade"`
	MinGrade     int                     `yaml:"min_grade"`
	MaxGrade     int                     `yaml:"max_grade"`
	Tables       map[int]map[int]float64 `yaml:"tables"`
}

// Cell is a 1-based row/column coordinate.
type Cell struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// TemplateMapping picks the template sheet and the first score column for a
// subject. Zero Hours or Term matches any value.
type TemplateMapping struct {
	Hours    int    `yaml:"hours"`
	Term     int    `yaml:"term"`
	Sheet    string `yaml:"sheet"`
	StartCol string `yaml:"start_col"`
}

type LayoutConfig struct {
	StudentNameCell     Cell              `yaml:"student_name_cell"`
	SubjectNameCell     Cell              `yaml:"subject_name_cell"`
	SubjectLabel        string            `yaml:"subject_label"`
	DailyGradesStartCol string            `yaml:"daily_grades_start_col"`
	MaxMidterms         int               `yaml:"max_midterms"`
	Terms               int               `yaml:"terms"`
	PassLabel           string            `yaml:"pass_label"`
	PassLabelKazakh     string            `yaml:"pass_label_kazakh"`
	Templates           []TemplateMapping `yaml:"templates"`
}

type PathsConfig struct {
	Template  string `yaml:"template"`
	OutputDir string `yaml:"output_dir"`
	Roster    string `yaml:"roster"`
	Grades    string `yaml:"grades"`
}

type RunConfig struct {
	// Seed drives every random draw of a run; 0 picks one from the clock.
	Seed uint64 `yaml:"seed"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	daily := scoring.DefaultDailyGrades()
	cfg := &Config{
		Scoring: ScoringConfig{
			GradeBands:             scoring.DefaultGradeBands(),
			Weights:                scoring.DefaultWeights(),
			NumMidterms:            3,
			MaxScores:              []int{20, 20, 20, 20},
			PenaltyBonusRange:      [2]float64{-3, 7},
			TotalPercentMeanOffset: -2,
			TotalPercentSD:         floatPtr(3),
			SplitMeanOffset:        0,
			SplitSD:                floatPtr(2.5),
			SingleHourMidterms:     1,
		},
		Daily: DailyConfig{
			Density:      daily.Density,
			DefaultGrade: daily.DefaultGrade,
			MinGrade:     daily.MinGrade,
			MaxGrade:     daily.MaxGrade,
		},
		Layout: LayoutConfig{
			StudentNameCell:     Cell{Row: 7, Col: 2},
			SubjectNameCell:     Cell{Row: 1, Col: 2},
			SubjectLabel:        "Наименование предмета: %s",
			DailyGradesStartCol: "C",
			MaxMidterms:         4,
			Terms:               4,
			PassLabel:           "зач",
			PassLabelKazakh:     "есп",
			Templates: []TemplateMapping{
				{Sheet: "temp", StartCol: "AF"},
			},
		},
		Paths: PathsConfig{
			Template:  "template.xlsx",
			OutputDir: "reports",
			Roster:    "roster.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// yaml merges into an existing map, so the daily tables are defaulted
	// only when the file leaves them out. A file that brings its own tables
	// also brings its own bands.
	if cfg.Daily.Tables == nil {
		cfg.Daily.Tables = daily.Tables
		if cfg.Daily.Bands == nil {
			cfg.Daily.Bands = daily.Bands
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// SynthesizerConfig converts the file representation into the synthesizer's
// immutable configuration.
func (c *Config) SynthesizerConfig() scoring.Config {
	return scoring.Config{
		Bands:       append(scoring.GradeBands(nil), c.Scoring.GradeBands...),
		Weights:     c.Scoring.Weights,
		NumMidterms: c.Scoring.NumMidterms,
		MaxScores:   append([]int(nil), c.Scoring.MaxScores...),
		Generation: scoring.Generation{
			TotalMeanOffset: c.Scoring.TotalPercentMeanOffset,
			TotalSD:         c.Scoring.TotalPercentSD,
			SplitMeanOffset: c.Scoring.SplitMeanOffset,
			SplitSD:         c.Scoring.SplitSD,
			PenaltyMin:      c.Scoring.PenaltyBonusRange[0],
			PenaltyMax:      c.Scoring.PenaltyBonusRange[1],
		},
	}
}

func (c *Config) DailyGrades() scoring.DailyGrades {
	return scoring.DailyGrades{
		Bands:        c.Daily.Bands,
		DefaultGrade: c.Daily.DefaultGrade,
		MinGrade:     c.Daily.MinGrade,
		MaxGrade:     c.Daily.MaxGrade,
		Tables:       c.Daily.Tables,
		Density:      c.Daily.Density,
	}
}

// Validate checks everything a run depends on before any record is produced.
func (c *Config) Validate() error {
	sc := c.SynthesizerConfig()
	if err := sc.Validate(); err != nil {
		return err
	}
	if c.Scoring.SingleHourMidterms < 0 || c.Scoring.SingleHourMidterms > c.Scoring.NumMidterms {
		return &scoring.InvalidConfigurationError{
			Reason: fmt.Sprintf("single_hour_midterms must be within [0, %d], got %d", c.Scoring.NumMidterms, c.Scoring.SingleHourMidterms),
		}
	}
	daily := c.DailyGrades()
	if err := daily.Validate(); err != nil {
		return err
	}
	if err := daily.ValidateCeilings(sc.Bands.Marks()); err != nil {
		return err
	}
	return c.Layout.Validate(c.Scoring.NumMidterms)
}

func (l LayoutConfig) Validate(numMidterms int) error {
	if l.MaxMidterms < numMidterms {
		return &scoring.InvalidConfigurationError{
			Reason: fmt.Sprintf("layout max_midterms %d is smaller than num_midterms %d", l.MaxMidterms, numMidterms),
		}
	}
	if l.Terms <= 0 {
		return &scoring.InvalidConfigurationError{Reason: "layout terms must be positive"}
	}
	if l.StudentNameCell.Row <= 0 || l.StudentNameCell.Col <= 0 {
		return &scoring.InvalidConfigurationError{Reason: "layout student_name_cell must be 1-based"}
	}
	if l.SubjectNameCell.Row <= 0 || l.SubjectNameCell.Col <= 0 {
		return &scoring.InvalidConfigurationError{Reason: "layout subject_name_cell must be 1-based"}
	}
	if l.DailyGradesStartCol == "" {
		return &scoring.InvalidConfigurationError{Reason: "layout daily_grades_start_col is required"}
	}
	for i, t := range l.Templates {
		if t.Sheet == "" || t.StartCol == "" {
			return &scoring.InvalidConfigurationError{
				Reason: fmt.Sprintf("layout template %d needs sheet and start_col", i),
			}
		}
	}
	return nil
}

// Template resolves the mapping for a subject's weekly hours and a term:
// an exact match wins, then an hours match for any term, then a catch-all.
func (l LayoutConfig) Template(hours, term int) (TemplateMapping, bool) {
	var hoursOnly, fallback *TemplateMapping
	for i := range l.Templates {
		t := &l.Templates[i]
		switch {
		case t.Hours == hours && t.Term == term:
			return *t, true
		case t.Hours == hours && t.Term == 0 && hoursOnly == nil:
			hoursOnly = t
		case t.Hours == 0 && (t.Term == term || t.Term == 0) && fallback == nil:
			fallback = t
		}
	}
	if hoursOnly != nil {
		return *hoursOnly, true
	}
	if fallback != nil {
		return *fallback, true
	}
	return TemplateMapping{}, false
}

// PassLabelFor returns the pass/fail label for the class language.
func (l LayoutConfig) PassLabelFor(kazakh bool) string {
	if kazakh {
		return l.PassLabelKazakh
	}
	return l.PassLabel
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JOURNAL_TEMPLATE"); v != "" {
		cfg.Paths.Template = v
	}
	if v := os.Getenv("JOURNAL_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := os.Getenv("JOURNAL_ROSTER"); v != "" {
		cfg.Paths.Roster = v
	}
	if v := os.Getenv("JOURNAL_GRADES"); v != "" {
		cfg.Paths.Grades = v
	}
	if v := os.Getenv("JOURNAL_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Run.Seed = n
		}
	}
	if v := os.Getenv("JOURNAL_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("JOURNAL_DAILY_DENSITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Daily.Density = f
		}
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JOURNAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func floatPtr(v float64) *float64 { return &v }
