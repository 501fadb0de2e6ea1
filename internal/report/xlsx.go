package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/MikeSquared-Agency/Journal/internal/config"
	"github.com/MikeSquared-Agency/Journal/internal/journal"
)

// Columns after the midterm block: final score, adjusted periodic %, actual
// final %, total % and the term mark.
const trailingCols = 5

// XLSXWriter renders journal sheets into one workbook per parallel, starting
// from the template workbook or from an earlier run's output.
type XLSXWriter struct {
	layout    config.LayoutConfig
	template  string
	outputDir string
	runID     string
	logger    *slog.Logger
}

func NewXLSXWriter(cfg *config.Config, runID string, logger *slog.Logger) *XLSXWriter {
	return &XLSXWriter{
		layout:    cfg.Layout,
		template:  cfg.Paths.Template,
		outputDir: cfg.Paths.OutputDir,
		runID:     runID,
		logger:    logger,
	}
}

// OutputPath returns the workbook path for a parallel.
func (w *XLSXWriter) OutputPath(parallel string) string {
	return filepath.Join(w.outputDir, fmt.Sprintf("journal %s.xlsx", parallel))
}

func (w *XLSXWriter) Open(ctx context.Context, parallel string) (journal.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	path := w.OutputPath(parallel)
	source := path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		source = w.template
		w.logger.Info("creating report from template", "parallel", parallel, "template", w.template)
	} else {
		w.logger.Info("loaded existing report", "parallel", parallel, "path", path)
	}

	f, err := excelize.OpenFile(source)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", source, err)
	}
	dailyCol, err := excelize.ColumnNameToNumber(w.layout.DailyGradesStartCol)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("daily grades column: %w", err)
	}
	return &workbook{
		w:        w,
		f:        f,
		path:     path,
		dailyCol: dailyCol,
		logger:   w.logger.With("parallel", parallel),
	}, nil
}

type workbook struct {
	w        *XLSXWriter
	f        *excelize.File
	path     string
	dailyCol int
	logger   *slog.Logger
}

func (b *workbook) WriteSheet(sheet journal.Sheet) error {
	if err := b.prepare(sheet); err != nil {
		return err
	}
	layout := b.w.layout

	label := layout.SubjectLabel
	if strings.Contains(label, "%s") {
		label = fmt.Sprintf(label, capitalize(sheet.Subject))
	}
	if err := b.set(sheet.Name, layout.SubjectNameCell.Col, layout.SubjectNameCell.Row, label); err != nil {
		return err
	}

	for i, rec := range sheet.Records {
		row := layout.StudentNameCell.Row + i
		if err := b.set(sheet.Name, layout.StudentNameCell.Col, row, rec.Student); err != nil {
			return err
		}
		for col, v := range b.scoreRow(sheet, rec) {
			if err := b.set(sheet.Name, sheet.StartCol+col, row, v); err != nil {
				return err
			}
		}
		for col := b.dailyCol; col < sheet.StartCol; col++ {
			var v any
			if grade, ok := rec.Daily[col]; ok {
				v = grade
			}
			if err := b.set(sheet.Name, col, row, v); err != nil {
				return err
			}
		}
	}
	b.logger.Debug("wrote sheet", "sheet", sheet.Name, "students", len(sheet.Records))
	return nil
}

// prepare makes sure the output sheet exists, copying it from the template
// when it does not.
func (b *workbook) prepare(sheet journal.Sheet) error {
	idx, err := b.f.GetSheetIndex(sheet.Name)
	if err != nil {
		return fmt.Errorf("look up sheet %s: %w", sheet.Name, err)
	}
	if idx != -1 {
		b.logger.Info("overwriting existing sheet", "sheet", sheet.Name)
		return nil
	}
	from, err := b.f.GetSheetIndex(sheet.Template)
	if err != nil || from == -1 {
		return fmt.Errorf("template sheet %q not found for %s", sheet.Template, sheet.Name)
	}
	to, err := b.f.NewSheet(sheet.Name)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet.Name, err)
	}
	if err := b.f.CopySheet(from, to); err != nil {
		return fmt.Errorf("copy template %s: %w", sheet.Template, err)
	}
	return nil
}

// scoreRow lays out the score block: midterms padded to MaxMidterms, then
// the trailing columns. Nil entries clear the cell.
func (b *workbook) scoreRow(sheet journal.Sheet, rec journal.Record) []any {
	layout := b.w.layout
	row := make([]any, layout.MaxMidterms+trailingCols)
	mark := layout.MaxMidterms + trailingCols - 1

	switch rec.Kind {
	case journal.KindPassFail:
		row[mark] = layout.PassLabelFor(sheet.Kazakh)
	case journal.KindScored:
		bd := rec.Breakdown
		for i, s := range bd.PeriodicScores {
			if i < layout.MaxMidterms {
				row[i] = s
			}
		}
		base := layout.MaxMidterms
		if bd.FinalScore != nil {
			row[base] = *bd.FinalScore
		}
		row[base+1] = bd.AdjustedPeriodicPercent
		if bd.ActualFinalPercent != nil {
			row[base+2] = *bd.ActualFinalPercent
		}
		row[base+3] = bd.TotalPercent
		row[mark] = bd.Mark
	}
	return row
}

func (b *workbook) set(sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell %d,%d: %w", col, row, err)
	}
	if v == nil {
		v = ""
	}
	if err := b.f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// Close drops the template sheets, stamps the run id and saves.
func (b *workbook) Close() error {
	defer b.f.Close()

	templates := make(map[string]bool)
	for _, t := range b.w.layout.Templates {
		templates[t.Sheet] = true
	}
	var keep int
	for _, name := range b.f.GetSheetList() {
		if !templates[name] {
			keep++
		}
	}
	if keep > 0 {
		for _, name := range b.f.GetSheetList() {
			if templates[name] {
				if err := b.f.DeleteSheet(name); err != nil {
					return fmt.Errorf("delete template %s: %w", name, err)
				}
			}
		}
		b.f.SetActiveSheet(0)
	}

	if err := b.f.SetDocProps(&excelize.DocProperties{
		Creator:     "journal",
		Identifier:  b.w.runID,
		Description: "generated journal",
	}); err != nil {
		return fmt.Errorf("set document properties: %w", err)
	}
	if err := b.f.SaveAs(b.path); err != nil {
		return fmt.Errorf("save %s: %w", b.path, err)
	}
	b.logger.Info("saved report", "path", b.path, "sheets", keep)
	return nil
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
