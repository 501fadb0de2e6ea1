package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

func TestLoadDefaults(t *testing.T) {
	envVars := []string{
		"JOURNAL_TEMPLATE", "JOURNAL_OUTPUT_DIR", "JOURNAL_ROSTER", "JOURNAL_GRADES",
		"JOURNAL_SEED", "JOURNAL_METRICS_TEXTFILE", "JOURNAL_DAILY_DENSITY",
		"JOURNAL_LOG_LEVEL", "JOURNAL_LOG_FORMAT",
	}
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scoring.NumMidterms != 3 {
		t.Errorf("expected 3 midterms, got %d", cfg.Scoring.NumMidterms)
	}
	if len(cfg.Scoring.MaxScores) != 4 {
		t.Errorf("expected 4 max scores, got %v", cfg.Scoring.MaxScores)
	}
	if cfg.Scoring.Weights.Periodic != 50 || cfg.Scoring.Weights.Final != 50 {
		t.Errorf("expected 50/50 weights, got %+v", cfg.Scoring.Weights)
	}
	if cfg.Scoring.PenaltyBonusRange != [2]float64{-3, 7} {
		t.Errorf("expected penalty range [-3 7], got %v", cfg.Scoring.PenaltyBonusRange)
	}
	if cfg.Scoring.TotalPercentMeanOffset != -2 {
		t.Errorf("expected total mean offset -2, got %f", cfg.Scoring.TotalPercentMeanOffset)
	}
	if cfg.Scoring.TotalPercentSD == nil || *cfg.Scoring.TotalPercentSD != 3 {
		t.Errorf("expected total sd 3, got %v", cfg.Scoring.TotalPercentSD)
	}
	if cfg.Daily.Density != 0.66 {
		t.Errorf("expected density 0.66, got %f", cfg.Daily.Density)
	}
	if cfg.Layout.StudentNameCell != (Cell{Row: 7, Col: 2}) {
		t.Errorf("expected student cell B7, got %+v", cfg.Layout.StudentNameCell)
	}
	if cfg.Layout.MaxMidterms != 4 {
		t.Errorf("expected max midterms 4, got %d", cfg.Layout.MaxMidterms)
	}
	if cfg.Paths.OutputDir != "reports" {
		t.Errorf("expected output dir 'reports', got '%s'", cfg.Paths.OutputDir)
	}
	if cfg.Run.Seed != 0 {
		t.Errorf("expected seed 0, got %d", cfg.Run.Seed)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JOURNAL_TEMPLATE", "/data/template.xlsx")
	t.Setenv("JOURNAL_OUTPUT_DIR", "/data/out")
	t.Setenv("JOURNAL_ROSTER", "/data/roster.yaml")
	t.Setenv("JOURNAL_GRADES", "/data/grades.xlsx")
	t.Setenv("JOURNAL_SEED", "12345")
	t.Setenv("JOURNAL_METRICS_TEXTFILE", "/data/journal.prom")
	t.Setenv("JOURNAL_DAILY_DENSITY", "0.5")
	t.Setenv("JOURNAL_LOG_LEVEL", "debug")
	t.Setenv("JOURNAL_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Paths.Template != "/data/template.xlsx" {
		t.Errorf("expected template path, got '%s'", cfg.Paths.Template)
	}
	if cfg.Paths.OutputDir != "/data/out" {
		t.Errorf("expected output dir, got '%s'", cfg.Paths.OutputDir)
	}
	if cfg.Paths.Roster != "/data/roster.yaml" {
		t.Errorf("expected roster path, got '%s'", cfg.Paths.Roster)
	}
	if cfg.Paths.Grades != "/data/grades.xlsx" {
		t.Errorf("expected grades path, got '%s'", cfg.Paths.Grades)
	}
	if cfg.Run.Seed != 12345 {
		t.Errorf("expected seed 12345, got %d", cfg.Run.Seed)
	}
	if cfg.Metrics.Textfile != "/data/journal.prom" {
		t.Errorf("expected metrics textfile, got '%s'", cfg.Metrics.Textfile)
	}
	if cfg.Daily.Density != 0.5 {
		t.Errorf("expected density 0.5, got %f", cfg.Daily.Density)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected log format 'text', got '%s'", cfg.Logging.Format)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("JOURNAL_SEED", "not-a-number")
	t.Setenv("JOURNAL_DAILY_DENSITY", "lots")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Run.Seed != 0 {
		t.Errorf("expected seed to stay 0, got %d", cfg.Run.Seed)
	}
	if cfg.Daily.Density != 0.66 {
		t.Errorf("expected density to stay 0.66, got %f", cfg.Daily.Density)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	data := `
scoring:
  weights:
    periodic: 100
    final: 0
  num_midterms: 2
  max_scores: [10, 10, 0]
  penalty_bonus_range: [-1, 1]
layout:
  templates:
    - hours: 1
      sheet: one-hour
      start_col: Z
    - sheet: temp
      start_col: AF
run:
  seed: 99
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scoring.Weights.HasFinal() {
		t.Error("expected no final component")
	}
	if cfg.Scoring.NumMidterms != 2 {
		t.Errorf("expected 2 midterms, got %d", cfg.Scoring.NumMidterms)
	}
	if cfg.Run.Seed != 99 {
		t.Errorf("expected seed 99, got %d", cfg.Run.Seed)
	}
	// untouched sections keep their defaults
	if cfg.Daily.Density != 0.66 {
		t.Errorf("expected default density, got %f", cfg.Daily.Density)
	}
	if len(cfg.Layout.Templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(cfg.Layout.Templates))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("file config should validate: %v", err)
	}

	sc := cfg.SynthesizerConfig()
	if sc.PeriodicCapacity() != 20 {
		t.Errorf("expected periodic capacity 20, got %d", sc.PeriodicCapacity())
	}
	if sc.Generation.PenaltyMin != -1 || sc.Generation.PenaltyMax != 1 {
		t.Errorf("expected penalty range [-1, 1], got [%f, %f]", sc.Generation.PenaltyMin, sc.Generation.PenaltyMax)
	}
}

func TestLoadReplacesDailyTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	data := `
daily:
  min_grade: 2
  max_grade: 5
  tables:
    2: {2: 0.8, 3: 0.2}
    3: {2: 0.1, 3: 0.8, 4: 0.1}
    4: {5: 0.2, 4: 0.7, 3: 0.1}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Daily.Tables) != 3 {
		t.Fatalf("expected only the file's table, got %v", cfg.Daily.Tables)
	}
	if len(cfg.Daily.Tables[4]) != 3 {
		t.Errorf("expected 3 grades in table 4, got %v", cfg.Daily.Tables[4])
	}
	if _, ok := cfg.Daily.Tables[10]; ok {
		t.Error("default ten-point tables leaked into the file's tables")
	}
	if len(cfg.Daily.Bands) != 0 {
		t.Errorf("expected no default bands alongside file tables, got %v", cfg.Daily.Bands)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("five-point daily config should validate: %v", err)
	}
	if p := cfg.DailyGrades().PrimaryGrade(5, scoring.NoCeiling); p != 4 {
		t.Errorf("expected default primary 4, got %d", p)
	}
}

func TestLoadKeepsDefaultDailyTables(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Daily.Tables) != 4 || len(cfg.Daily.Bands) != 4 {
		t.Errorf("expected default tables and bands, got %d tables and %d bands", len(cfg.Daily.Tables), len(cfg.Daily.Bands))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("scoring: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero weights", func(c *Config) { c.Scoring.Weights = scoring.Weights{} }},
		{"single hour midterms too many", func(c *Config) { c.Scoring.SingleHourMidterms = 5 }},
		{"density negative", func(c *Config) { c.Daily.Density = -0.1 }},
		{"layout too narrow", func(c *Config) { c.Layout.MaxMidterms = 2 }},
		{"zero terms", func(c *Config) { c.Layout.Terms = 0 }},
		{"zero-based cell", func(c *Config) { c.Layout.StudentNameCell = Cell{} }},
		{"daily tables above lowest mark", func(c *Config) {
			c.Daily.Bands = nil
			c.Daily.Tables = map[int]map[int]float64{4: {4: 1}}
		}},
		{"template without column", func(c *Config) {
			c.Layout.Templates = []TemplateMapping{{Sheet: "temp"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			var cfgErr *scoring.InvalidConfigurationError
			if !errors.As(cfg.Validate(), &cfgErr) {
				t.Errorf("expected InvalidConfigurationError")
			}
		})
	}
}

func TestTemplateLookup(t *testing.T) {
	l := LayoutConfig{Templates: []TemplateMapping{
		{Hours: 1, Term: 2, Sheet: "one-q2", StartCol: "A"},
		{Hours: 1, Sheet: "one", StartCol: "B"},
		{Term: 4, Sheet: "any-q4", StartCol: "C"},
		{Sheet: "any", StartCol: "D"},
	}}

	tests := []struct {
		hours, term int
		want        string
	}{
		{1, 2, "one-q2"},
		{1, 3, "one"},
		{3, 4, "any-q4"},
		{3, 1, "any"},
	}
	for _, tt := range tests {
		got, ok := l.Template(tt.hours, tt.term)
		if !ok {
			t.Fatalf("hours %d term %d: no template", tt.hours, tt.term)
		}
		if got.Sheet != tt.want {
			t.Errorf("hours %d term %d: expected %s, got %s", tt.hours, tt.term, tt.want, got.Sheet)
		}
	}

	if _, ok := (LayoutConfig{}).Template(2, 1); ok {
		t.Error("expected no template when none configured")
	}
}

func TestPassLabelFor(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Layout.PassLabelFor(true) != "есп" {
		t.Errorf("expected Kazakh label, got %s", cfg.Layout.PassLabelFor(true))
	}
	if cfg.Layout.PassLabelFor(false) != "зач" {
		t.Errorf("expected Russian label, got %s", cfg.Layout.PassLabelFor(false))
	}
}
