package roster

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GradeCode is one cell of the grades workbook. Blank and PassFail are
// sentinels; any other value is an aggregate mark.
type GradeCode int

const (
	GradeBlank    GradeCode = 0
	GradePassFail GradeCode = 1
)

var passFailWords = map[string]bool{
	"зачет":       true,
	"зачёт":       true,
	"сынақ":       true,
	"есептелінді": true,
}

// ParseGrade normalises raw cell text. Unparseable text reads as blank.
func ParseGrade(cell string) GradeCode {
	s := strings.ToLower(strings.TrimSpace(cell))
	if s == "" {
		return GradeBlank
	}
	if passFailWords[s] {
		return GradePassFail
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return GradeBlank
	}
	return GradeCode(int(f))
}

// IsMark reports whether g is an aggregate mark rather than a sentinel.
func (g GradeCode) IsMark() bool {
	return g > GradePassFail
}

func (g GradeCode) String() string {
	switch g {
	case GradeBlank:
		return ""
	case GradePassFail:
		return "зачет"
	default:
		return strconv.Itoa(int(g))
	}
}

func (g *GradeCode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("grade at line %d: expected scalar", node.Line)
	}
	*g = ParseGrade(node.Value)
	return nil
}

func (g GradeCode) MarshalYAML() (any, error) {
	if g.IsMark() {
		return int(g), nil
	}
	return g.String(), nil
}
