package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MikeSquared-Agency/Journal/internal/config"
	"github.com/MikeSquared-Agency/Journal/internal/metrics"
	"github.com/MikeSquared-Agency/Journal/internal/roster"
	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

// Summary reports what a run produced.
type Summary struct {
	Workbooks int            `json:"workbooks" yaml:"workbooks"`
	Sheets    int            `json:"sheets" yaml:"sheets"`
	Records   map[string]int `json:"records" yaml:"records"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
}

// Generator turns roster grades into journal sheets.
type Generator struct {
	layout   config.LayoutConfig
	full     *scoring.Synthesizer
	single   *scoring.Synthesizer
	daily    scoring.DailyGrades
	dailyCol int
	writer   Writer
	rng      scoring.RandomSource
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// NewGenerator validates cfg up front; configuration problems surface here
// as *scoring.InvalidConfigurationError before any record is produced.
func NewGenerator(cfg *config.Config, w Writer, rng scoring.RandomSource, rec *metrics.Recorder, logger *slog.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sc := cfg.SynthesizerConfig()
	full, err := scoring.NewSynthesizer(sc)
	if err != nil {
		return nil, err
	}
	singleCfg, err := sc.ForMidterms(cfg.Scoring.SingleHourMidterms)
	if err != nil {
		return nil, err
	}
	single, err := scoring.NewSynthesizer(singleCfg)
	if err != nil {
		return nil, err
	}
	dailyCol, err := excelize.ColumnNameToNumber(cfg.Layout.DailyGradesStartCol)
	if err != nil {
		return nil, &scoring.InvalidConfigurationError{Reason: fmt.Sprintf("daily_grades_start_col: %v", err)}
	}
	for _, t := range cfg.Layout.Templates {
		if _, err := excelize.ColumnNameToNumber(t.StartCol); err != nil {
			return nil, &scoring.InvalidConfigurationError{Reason: fmt.Sprintf("template %s start_col: %v", t.Sheet, err)}
		}
	}
	return &Generator{
		layout:   cfg.Layout,
		full:     full,
		single:   single,
		daily:    cfg.DailyGrades(),
		dailyCol: dailyCol,
		writer:   w,
		rng:      rng,
		metrics:  rec,
		logger:   logger,
	}, nil
}

// Run writes one workbook per parallel. Cancellation is checked between
// sheets; a cancelled run leaves already closed workbooks in place.
func (g *Generator) Run(ctx context.Context, classes []*roster.Class) (Summary, error) {
	start := time.Now()
	sum := Summary{Records: make(map[string]int)}

	order, groups := groupByParallel(classes)
	for _, parallel := range order {
		if err := g.runParallel(ctx, parallel, groups[parallel], &sum); err != nil {
			return sum, err
		}
		sum.Workbooks++
	}

	sum.Duration = time.Since(start)
	g.metrics.RunFinished(sum.Duration)
	g.logger.Info("generation finished", "workbooks", sum.Workbooks, "sheets", sum.Sheets, "duration", sum.Duration)
	return sum, nil
}

func (g *Generator) runParallel(ctx context.Context, parallel string, classes []*roster.Class, sum *Summary) (err error) {
	g.logger.Info("processing parallel", "parallel", parallel, "classes", len(classes))
	wb, err := g.writer.Open(ctx, parallel)
	if err != nil {
		return fmt.Errorf("open workbook for parallel %s: %w", parallel, err)
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook for parallel %s: %w", parallel, cerr)
		}
	}()

	names := make(map[string]bool)
	for _, class := range classes {
		for _, subject := range class.Subjects {
			for term := 1; term <= g.layout.Terms; term++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				sheet, ok, err := g.BuildSheet(class, subject, term)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				if name := UniqueSheetName(names, class.Name, subject.Name, term); name != sheet.Name {
					g.logger.Warn("sheet name taken, using suffix", "sheet", sheet.Name, "renamed", name)
					sheet.Name = name
				}
				if err := wb.WriteSheet(sheet); err != nil {
					return fmt.Errorf("write sheet %s: %w", sheet.Name, err)
				}
				for _, r := range sheet.Records {
					sum.Records[r.Kind.String()]++
				}
				sum.Sheets++
				g.metrics.SheetWritten()
			}
		}
	}
	return nil
}

// BuildSheet produces the sheet for one class, subject and term. It reports
// false when the term has no template mapping or no grades.
func (g *Generator) BuildSheet(class *roster.Class, subject *roster.Subject, term int) (Sheet, bool, error) {
	log := g.logger.With("class", class.Name, "subject", subject.Name, "term", term)

	mapping, ok := g.layout.Template(subject.Hours, term)
	if !ok {
		log.Debug("no template mapping", "hours", subject.Hours)
		return Sheet{}, false, nil
	}
	grades := subject.Term(term, len(class.Students))
	if !anyGrade(grades) {
		log.Debug("no grades for term")
		return Sheet{}, false, nil
	}
	startCol, err := excelize.ColumnNameToNumber(mapping.StartCol)
	if err != nil {
		return Sheet{}, false, &scoring.InvalidConfigurationError{Reason: fmt.Sprintf("template %s start_col: %v", mapping.Sheet, err)}
	}

	synth := g.full
	if subject.Hours == 1 {
		synth = g.single
	}

	sheet := Sheet{
		Name:     SheetName(class.Name, subject.Name, term),
		Template: mapping.Sheet,
		StartCol: startCol,
		Class:    class.Name,
		Subject:  subject.Name,
		Term:     term,
		Kazakh:   class.Kazakh,
		Midterms: synth.Config().NumMidterms,
		Records:  make([]Record, len(grades)),
	}
	dailyCols := columnRange(g.dailyCol, startCol)

	for i, code := range grades {
		rec := Record{Student: class.Students[i], Grade: code}
		switch {
		case code == roster.GradeBlank:
			rec.Kind = KindBlank
		case code == roster.GradePassFail:
			rec.Kind = KindPassFail
		default:
			b, err := synth.Synthesize(int(code), g.rng)
			var markErr *scoring.InvalidMarkError
			switch {
			case errors.As(err, &markErr):
				log.Warn("skipping record with unknown mark", "student", rec.Student, "mark", markErr.Mark)
				rec.Kind = KindInvalid
			case err != nil:
				return Sheet{}, false, fmt.Errorf("synthesize %s %s Q%d: %w", class.Name, subject.Name, term, err)
			default:
				rec.Kind = KindScored
				rec.Breakdown = &b
				rec.Daily = g.dailyGrades(b, dailyCols)
				g.metrics.Scored(b.Mark)
				g.metrics.DailyGrades(len(rec.Daily))
			}
		}
		if rec.Kind != KindScored {
			g.metrics.RecordKind(rec.Kind.String())
		}
		sheet.Records[i] = rec
	}
	log.Debug("built sheet", "sheet", sheet.Name, "template", sheet.Template)
	return sheet, true, nil
}

// dailyGrades fills a density share of the available columns, chosen without
// replacement, with grades drawn around the record's mark.
func (g *Generator) dailyGrades(b scoring.ScoreBreakdown, cols []int) map[int]int {
	n := int(float64(len(cols)) * g.daily.Density)
	if n == 0 {
		return nil
	}
	dist := g.daily.DistributionFor(b.PenaltyBonus, b.Mark)
	pool := append([]int(nil), cols...)
	out := make(map[int]int, n)
	for i := range n {
		j := i + g.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		out[pool[i]] = dist.Sample(g.rng)
	}
	return out
}

// columnRange returns the columns in [from, to).
func columnRange(from, to int) []int {
	if to <= from {
		return nil
	}
	cols := make([]int, 0, to-from)
	for c := from; c < to; c++ {
		cols = append(cols, c)
	}
	return cols
}

func anyGrade(grades []roster.GradeCode) bool {
	for _, g := range grades {
		if g != roster.GradeBlank {
			return true
		}
	}
	return false
}

// groupByParallel groups classes by grade level, keeping first-seen order.
func groupByParallel(classes []*roster.Class) ([]string, map[string][]*roster.Class) {
	var order []string
	groups := make(map[string][]*roster.Class)
	for _, c := range classes {
		p := c.Parallel()
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], c)
	}
	return order, groups
}
