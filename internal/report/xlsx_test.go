package report

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MikeSquared-Agency/Journal/internal/config"
	"github.com/MikeSquared-Agency/Journal/internal/journal"
	"github.com/MikeSquared-Agency/Journal/internal/roster"
	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// setup writes a template workbook with a single "temp" sheet and returns a
// config pointing at it.
func setup(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "temp"))
	require.NoError(t, f.SetCellValue("temp", "A6", "№"))
	require.NoError(t, f.SetCellValue("temp", "B6", "ФИО"))
	template := filepath.Join(dir, "template.xlsx")
	require.NoError(t, f.SaveAs(template))
	require.NoError(t, f.Close())

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Paths.Template = template
	cfg.Paths.OutputDir = filepath.Join(dir, "reports")
	cfg.Layout.DailyGradesStartCol = "C"
	cfg.Layout.Templates = []config.TemplateMapping{{Sheet: "temp", StartCol: "H"}}
	return cfg
}

func testSheet() journal.Sheet {
	return journal.Sheet{
		Name:     "9B - алгебра - Q1",
		Template: "temp",
		StartCol: 8,
		Class:    "9B",
		Subject:  "алгебра",
		Term:     1,
		Kazakh:   true,
		Midterms: 3,
		Records: []journal.Record{
			{
				Student: "Ахметов Арман",
				Grade:   5,
				Kind:    journal.KindScored,
				Breakdown: &scoring.ScoreBreakdown{
					Mark:                    5,
					TotalPercent:            92.5,
					FinalScore:              intPtr(18),
					PeriodicScores:          []int{20, 20, 15},
					AdjustedPeriodicPercent: 47.5,
					ActualFinalPercent:      floatPtr(45),
					PenaltyBonus:            2,
					TargetSum:               55,
				},
				Daily: map[int]int{3: 10, 5: 8},
			},
			{Student: "Иванова Мария", Grade: roster.GradePassFail, Kind: journal.KindPassFail},
			{Student: "Ким Дана", Kind: journal.KindBlank},
		},
	}
}

func cellValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func writeOnce(t *testing.T, cfg *config.Config, sheets ...journal.Sheet) string {
	t.Helper()
	w := NewXLSXWriter(cfg, "run-1", discardLogger())
	wb, err := w.Open(context.Background(), "9")
	require.NoError(t, err)
	for _, s := range sheets {
		require.NoError(t, wb.WriteSheet(s))
	}
	require.NoError(t, wb.Close())
	return w.OutputPath("9")
}

func TestWriteSheet(t *testing.T) {
	cfg := setup(t)
	path := writeOnce(t, cfg, testSheet())
	assert.Equal(t, "journal 9.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// template sheet is dropped, its content is copied
	assert.Equal(t, []string{"9B - алгебра - Q1"}, f.GetSheetList())
	name := "9B - алгебра - Q1"
	assert.Equal(t, "ФИО", cellValue(t, f, name, "B6"))

	assert.Equal(t, "Наименование предмета: Алгебра", cellValue(t, f, name, "B1"))
	assert.Equal(t, "Ахметов Арман", cellValue(t, f, name, "B7"))
	assert.Equal(t, "Иванова Мария", cellValue(t, f, name, "B8"))
	assert.Equal(t, "Ким Дана", cellValue(t, f, name, "B9"))

	// H..K midterms (fourth padded blank), L final, M adjusted, N actual, O total, P mark
	want := map[string]string{
		"H7": "20", "I7": "20", "J7": "15", "K7": "",
		"L7": "18", "M7": "47.5", "N7": "45", "O7": "92.5", "P7": "5",
	}
	for cell, v := range want {
		assert.Equal(t, v, cellValue(t, f, name, cell), cell)
	}

	assert.Equal(t, "есп", cellValue(t, f, name, "P8"))
	assert.Equal(t, "", cellValue(t, f, name, "H8"))
	assert.Equal(t, "", cellValue(t, f, name, "P9"))

	assert.Equal(t, "10", cellValue(t, f, name, "C7"))
	assert.Equal(t, "", cellValue(t, f, name, "D7"))
	assert.Equal(t, "8", cellValue(t, f, name, "E7"))

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "run-1", props.Identifier)
}

func TestWriteSheetOverwritesExistingReport(t *testing.T) {
	cfg := setup(t)
	writeOnce(t, cfg, testSheet())

	second := testSheet()
	second.Kazakh = false
	second.Records[0] = journal.Record{Student: "Ахметов Арман", Kind: journal.KindBlank}
	second.Records[2] = journal.Record{Student: "Ким Дана", Kind: journal.KindPassFail}
	path := writeOnce(t, cfg, second)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	name := "9B - алгебра - Q1"
	assert.Equal(t, []string{name}, f.GetSheetList())
	assert.Equal(t, "", cellValue(t, f, name, "H7"))
	assert.Equal(t, "", cellValue(t, f, name, "P7"))
	assert.Equal(t, "", cellValue(t, f, name, "C7"))
	assert.Equal(t, "зач", cellValue(t, f, name, "P9"))
}

func TestWriteSheetNoFinal(t *testing.T) {
	cfg := setup(t)
	sheet := testSheet()
	sheet.Records[0].Breakdown.FinalScore = nil
	sheet.Records[0].Breakdown.ActualFinalPercent = nil
	path := writeOnce(t, cfg, sheet)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	name := sheet.Name
	assert.Equal(t, "", cellValue(t, f, name, "L7"))
	assert.Equal(t, "", cellValue(t, f, name, "N7"))
	assert.Equal(t, "92.5", cellValue(t, f, name, "O7"))
}

func TestWriteSheetMissingTemplate(t *testing.T) {
	cfg := setup(t)
	w := NewXLSXWriter(cfg, "run-1", discardLogger())
	wb, err := w.Open(context.Background(), "9")
	require.NoError(t, err)
	defer wb.Close()

	sheet := testSheet()
	sheet.Template = "missing"
	assert.Error(t, wb.WriteSheet(sheet))
}

func TestOpenErrors(t *testing.T) {
	cfg := setup(t)
	cfg.Paths.Template = filepath.Join(t.TempDir(), "missing.xlsx")
	w := NewXLSXWriter(cfg, "run-1", discardLogger())
	_, err := w.Open(context.Background(), "9")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Open(ctx, "9")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseKeepsTemplateWhenNothingWritten(t *testing.T) {
	cfg := setup(t)
	path := writeOnce(t, cfg)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"temp"}, f.GetSheetList())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Алгебра", capitalize("алгебра"))
	assert.Equal(t, "История казахстана", capitalize("ИСТОРИЯ Казахстана"))
	assert.Equal(t, "", capitalize(""))
}
