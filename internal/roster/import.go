package roster

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column layout of a class sheet in the grades workbook.
const (
	studentCol      = 1
	termCol         = 2
	firstSubjectCol = 3
)

// ImportGrades reads the grades workbook at path and fills students and
// grades into the matching classes of r. Sheets are matched to classes by
// name; unknown sheets and subjects are logged and skipped.
func ImportGrades(path string, r *Roster, logger *slog.Logger) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open grades workbook: %w", err)
	}
	defer f.Close()
	return ImportWorkbook(f, r, logger)
}

// ImportWorkbook is ImportGrades on an already opened workbook.
func ImportWorkbook(f *excelize.File, r *Roster, logger *slog.Logger) error {
	for _, sheet := range f.GetSheetList() {
		class := r.Class(strings.TrimSpace(sheet))
		if class == nil {
			logger.Warn("grades sheet has no matching class", "sheet", sheet)
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		importSheet(class, rows, logger)
	}
	return nil
}

func importSheet(class *Class, rows [][]string, logger *slog.Logger) {
	if len(rows) == 0 || len(rows[0]) <= firstSubjectCol {
		logger.Warn("skipping sheet without subject columns", "class", class.Name)
		return
	}
	header := rows[0]

	var students []string
	index := make(map[string]int)
	var studentRows [][]int
	current := ""
	for i, row := range rows[1:] {
		if name := strings.TrimSpace(cell(row, studentCol)); name != "" {
			current = name
		}
		if current == "" || strings.TrimSpace(cell(row, termCol)) == "" {
			continue
		}
		idx, ok := index[current]
		if !ok {
			idx = len(students)
			index[current] = idx
			students = append(students, current)
			studentRows = append(studentRows, nil)
		}
		studentRows[idx] = append(studentRows[idx], i+1)
	}
	if len(students) == 0 {
		logger.Warn("sheet lists no students", "class", class.Name)
		return
	}
	class.Students = students

	for col := firstSubjectCol; col < len(header); col++ {
		name := NormalizeSubject(header[col])
		if name == "" {
			continue
		}
		subject := class.Subject(name)
		if subject == nil {
			logger.Warn("grades found for subject missing from class", "class", class.Name, "subject", name)
			continue
		}
		grades := make([][]GradeCode, len(students))
		for s, rowIdx := range studentRows {
			codes := make([]GradeCode, len(rowIdx))
			for k, ri := range rowIdx {
				codes[k] = ParseGrade(cell(rows[ri], col))
			}
			grades[s] = codes
		}
		subject.Grades = grades
		if !subject.DetectExam() {
			for s := range subject.Grades {
				if len(subject.Grades[s]) > YearRow+1 {
					subject.Grades[s] = subject.Grades[s][:YearRow+1]
				}
			}
		}
		logger.Debug("imported grades", "class", class.Name, "subject", name, "students", len(students), "exam", subject.HasExam)
	}
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
