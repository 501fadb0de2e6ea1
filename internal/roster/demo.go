package roster

import (
	"fmt"

	"github.com/go-faker/faker/v4"

	"github.com/MikeSquared-Agency/Journal/internal/scoring"
)

// DemoSubject describes one subject of a synthetic roster.
type DemoSubject struct {
	Name     string
	Hours    int
	PassFail bool
	HasExam  bool
}

// DemoOptions shapes a synthetic roster for dry runs.
type DemoOptions struct {
	Parallels       []string
	ClassesPerLevel int
	Students        int
	Subjects        []DemoSubject
	// Marks is the pool aggregate marks are drawn from.
	Marks []int
	// BlankRate is the share of term grades left blank.
	BlankRate float64
}

func DefaultDemoOptions() DemoOptions {
	return DemoOptions{
		Parallels:       []string{"5", "9"},
		ClassesPerLevel: 2,
		Students:        20,
		Subjects: []DemoSubject{
			{Name: "алгебра", Hours: 3, HasExam: true},
			{Name: "история казахстана", Hours: 2},
			{Name: "музыка", Hours: 1},
			{Name: "физическая культура", Hours: 3, PassFail: true},
		},
		Marks:     []int{2, 3, 4, 4, 5, 5},
		BlankRate: 0.02,
	}
}

// Demo builds a roster with fake student names and random grades. Names come
// from faker; grades from rng, so equal seeds give equal grades.
func Demo(opts DemoOptions, rng scoring.RandomSource) (*Roster, error) {
	if opts.ClassesPerLevel <= 0 || opts.Students <= 0 {
		return nil, fmt.Errorf("demo roster: classes and students must be positive")
	}
	if len(opts.Marks) == 0 {
		return nil, fmt.Errorf("demo roster: no marks to draw from")
	}

	r := &Roster{}
	for _, parallel := range opts.Parallels {
		for i := range opts.ClassesPerLevel {
			letter := string(rune('A' + i))
			class := &Class{
				Name:     parallel + letter,
				Kazakh:   letter == "A",
				Students: make([]string, opts.Students),
			}
			for s := range class.Students {
				class.Students[s] = faker.LastName() + " " + faker.FirstName()
			}
			for _, ds := range opts.Subjects {
				class.Subjects = append(class.Subjects, demoSubject(ds, opts, rng))
			}
			r.Classes = append(r.Classes, class)
		}
	}
	return r, nil
}

func demoSubject(ds DemoSubject, opts DemoOptions, rng scoring.RandomSource) *Subject {
	rowsPerStudent := YearRow + 1
	if ds.HasExam {
		rowsPerStudent = ExamRow + 1
	}
	s := &Subject{
		Name:    NormalizeSubject(ds.Name),
		Teacher: faker.LastName() + " " + faker.FirstName(),
		Hours:   ds.Hours,
		HasExam: ds.HasExam,
		Grades:  make([][]GradeCode, opts.Students),
	}
	for i := range s.Grades {
		rows := make([]GradeCode, rowsPerStudent)
		for r := range rows {
			switch {
			case rng.Float64() < opts.BlankRate:
				rows[r] = GradeBlank
			case ds.PassFail:
				rows[r] = GradePassFail
			default:
				rows[r] = GradeCode(opts.Marks[rng.IntN(len(opts.Marks))])
			}
		}
		s.Grades[i] = rows
	}
	return s
}
