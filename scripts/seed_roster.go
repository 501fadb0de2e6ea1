// seed_roster.go: standalone script that turns a markdown class list into a roster YAML.
//
// Usage:
//
//	go run scripts/seed_roster.go -list classes.md -out roster.yaml
//
// Input format:
//
//	## 9A (kz)
//	* алгебра | 3 | Сейткали Б.
//	- Ахметов Арман
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/Journal/internal/roster"
)

// Header suffixes that mark a Kazakh-language class.
var kazakhMarkers = []string{"(kz)", "(каз)", "(қаз)"}

func main() {
	listPath := flag.String("list", "classes.md", "path to the markdown class list")
	outPath := flag.String("out", "roster.yaml", "where to write the roster")
	dryRun := flag.Bool("dry-run", false, "print classes without writing")
	flag.Parse()

	f, err := os.Open(*listPath)
	if err != nil {
		log.Fatalf("open class list: %v", err)
	}
	defer f.Close()

	r := &roster.Roster{}
	var current *roster.Class
	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "# ") {
			current = parseHeader(strings.TrimLeft(line, "# "))
			r.Classes = append(r.Classes, current)
			continue
		}
		if current == nil || line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "- "):
			current.Students = append(current.Students, strings.TrimSpace(strings.TrimPrefix(line, "- ")))
		case strings.HasPrefix(line, "* "):
			s, err := parseSubject(strings.TrimPrefix(line, "* "))
			if err != nil {
				log.Printf("skip line %d: %v", lineNo, err)
				continue
			}
			current.Subjects = append(current.Subjects, s)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("scan class list: %v", err)
	}
	if err := r.Validate(); err != nil {
		log.Fatalf("invalid roster: %v", err)
	}

	log.Printf("parsed %d classes from %s", len(r.Classes), *listPath)

	if *dryRun {
		for i, c := range r.Classes {
			fmt.Printf("[%d] %s (kazakh=%t, students=%d, subjects=%d)\n", i+1, c.Name, c.Kazakh, len(c.Students), len(c.Subjects))
		}
		return
	}

	if err := r.Save(*outPath); err != nil {
		log.Fatalf("save roster: %v", err)
	}
	log.Printf("done: wrote %s", *outPath)
}

func parseHeader(header string) *roster.Class {
	header = strings.TrimSpace(header)
	c := &roster.Class{}
	lower := strings.ToLower(header)
	for _, m := range kazakhMarkers {
		if strings.HasSuffix(lower, m) {
			c.Kazakh = true
			header = strings.TrimSpace(header[:len(header)-len(m)])
			break
		}
	}
	c.Name = header
	return c
}

// parseSubject reads "name | hours | teacher"; the teacher is optional.
func parseSubject(s string) (*roster.Subject, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 2 {
		return nil, fmt.Errorf("subject %q: want name | hours [| teacher]", s)
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("subject %q: hours: %w", s, err)
	}
	sub := &roster.Subject{
		Name:  roster.NormalizeSubject(parts[0]),
		Hours: hours,
	}
	if len(parts) > 2 {
		sub.Teacher = strings.TrimSpace(parts[2])
	}
	return sub, nil
}
