package roster

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Row indices of a student's grade rows. Terms occupy the first four rows;
// the exam row exists only for subjects with a final exam.
const (
	TermRows = 4
	YearRow  = 4
	ExamRow  = 6
)

// Roster is the school's class list.
type Roster struct {
	Classes []*Class `yaml:"classes"`
}

// Class is one class with its students and subjects. Kazakh selects the
// Kazakh-language labels.
type Class struct {
	Name     string     `yaml:"name"`
	Kazakh   bool       `yaml:"kazakh"`
	Students []string   `yaml:"students"`
	Subjects []*Subject `yaml:"subjects"`
}

// Subject is a subject taught to a class and its imported grades.
type Subject struct {
	Name    string `yaml:"name"`
	Teacher string `yaml:"teacher,omitempty"`
	Hours   int    `yaml:"hours"`
	HasExam bool   `yaml:"has_exam,omitempty"`
	// Grades holds one row list per student, in student order.
	Grades [][]GradeCode `yaml:"grades,omitempty"`
}

// Load reads a YAML roster.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	for _, c := range r.Classes {
		for _, s := range c.Subjects {
			s.Name = NormalizeSubject(s.Name)
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Save writes r as YAML.
func (r *Roster) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return nil
}

func (r *Roster) Validate() error {
	seen := make(map[string]bool, len(r.Classes))
	for _, c := range r.Classes {
		if c.Name == "" {
			return fmt.Errorf("roster: class without a name")
		}
		if seen[c.Name] {
			return fmt.Errorf("roster: duplicate class %q", c.Name)
		}
		seen[c.Name] = true

		subjects := make(map[string]bool, len(c.Subjects))
		for _, s := range c.Subjects {
			if s.Name == "" {
				return fmt.Errorf("roster: class %s has a subject without a name", c.Name)
			}
			if subjects[s.Name] {
				return fmt.Errorf("roster: class %s lists subject %q twice", c.Name, s.Name)
			}
			subjects[s.Name] = true
			if s.Hours < 0 {
				return fmt.Errorf("roster: class %s subject %s has negative hours", c.Name, s.Name)
			}
			if len(s.Grades) > len(c.Students) {
				return fmt.Errorf("roster: class %s subject %s has grades for %d students, class has %d",
					c.Name, s.Name, len(s.Grades), len(c.Students))
			}
		}
	}
	return nil
}

// Class returns the class with the given name, or nil.
func (r *Roster) Class(name string) *Class {
	for _, c := range r.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Subject returns the subject with the given normalised name, or nil.
func (c *Class) Subject(name string) *Subject {
	name = NormalizeSubject(name)
	for _, s := range c.Subjects {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Parallel returns the grade level that prefixes the class name ("10" for
// "10B"). Names without a numeric prefix are their own parallel.
func (c *Class) Parallel() string {
	if i := strings.IndexFunc(c.Name, func(r rune) bool { return !unicode.IsDigit(r) }); i > 0 {
		return c.Name[:i]
	}
	return c.Name
}

// Term returns one grade per student for term n (1-based). Students without
// a row for the term read as blank.
func (s *Subject) Term(n int, students int) []GradeCode {
	out := make([]GradeCode, students)
	if n < 1 {
		return out
	}
	for i := range out {
		if i < len(s.Grades) && n-1 < len(s.Grades[i]) {
			out[i] = s.Grades[i][n-1]
		}
	}
	return out
}

// DetectExam sets HasExam when any student has a grade in the exam row.
func (s *Subject) DetectExam() bool {
	s.HasExam = false
	for _, rows := range s.Grades {
		if len(rows) > ExamRow && rows[ExamRow] != GradeBlank {
			s.HasExam = true
			break
		}
	}
	return s.HasExam
}

// NormalizeSubject trims and lower-cases a subject name so workbook headers
// match roster entries.
func NormalizeSubject(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
