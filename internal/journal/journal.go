package journal

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/Journal/internal/roster"
	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

// MaxSheetName is the XLSX limit on worksheet name length.
const MaxSheetName = 31

// Kind classifies how a record's term grade was rendered.
type Kind int

const (
	KindBlank Kind = iota
	KindPassFail
	KindScored
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindPassFail:
		return "pass_fail"
	case KindScored:
		return "scored"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Record is one student's row on a term sheet.
type Record struct {
	Student   string
	Grade     roster.GradeCode
	Kind      Kind
	Breakdown *scoring.ScoreBreakdown
	// Daily maps a 1-based column to the lesson grade placed there.
	Daily map[int]int
}

// Sheet is one class/subject/term page of a journal workbook.
type Sheet struct {
	Name     string
	Template string
	// StartCol is the 1-based column where the score block begins.
	StartCol int
	Class    string
	Subject  string
	Term     int
	Kazakh   bool
	Midterms int
	Records  []Record
}

// Writer opens the output workbook of one parallel.
type Writer interface {
	Open(ctx context.Context, parallel string) (Workbook, error)
}

// Workbook receives the sheets of one parallel. Close persists it.
type Workbook interface {
	WriteSheet(sheet Sheet) error
	Close() error
}

// SheetName builds "<class> - <subject> - Q<term>", shortening the subject
// so the name fits MaxSheetName characters.
func SheetName(class, subject string, term int) string {
	return sheetName(class, subject, "", term)
}

// UniqueSheetName is SheetName with a "~n" suffix after the subject when a
// shortened name is already taken. The chosen name is added to used.
func UniqueSheetName(used map[string]bool, class, subject string, term int) string {
	name := SheetName(class, subject, term)
	for n := 2; used[name]; n++ {
		name = sheetName(class, subject, fmt.Sprintf("~%d", n), term)
	}
	used[name] = true
	return name
}

func sheetName(class, subject, suffix string, term int) string {
	chrome := utf8.RuneCountInString(fmt.Sprintf("%s - %s - Q%d", class, suffix, term))
	limit := max(MaxSheetName-chrome, 0)
	if r := []rune(subject); len(r) > limit {
		subject = string(r[:limit])
	}
	return fmt.Sprintf("%s - %s%s - Q%d", class, subject, suffix, term)
}
