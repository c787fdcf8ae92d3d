// Package marks summarizes continuous-assessment (internal) marks per course.
package marks

import (
	"regexp"
	"strconv"
	"strings"
)

// Status labels for a course's total internal marks.
const (
	StatusNoMarks          = "No Marks"
	StatusExcellent        = "Excellent"
	StatusGood             = "Good"
	StatusAverage          = "Average"
	StatusNeedsImprovement = "Needs Improvement"
)

// Positions of assessments within a portal marks row.
const (
	nameIndex    = 0
	test1Index   = 1
	test2Index   = 2
	final50Index = 6
)

// programmeTags are shortforms the portal prefixes to course codes and names.
var programmeTags = regexp.MustCompile(`(?i)BDAMD|JP|BTECH|CSE|ECE|EEE|MECH|CIVIL`)

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	edgeDashes  = regexp.MustCompile(`^[-\s]+|[-\s]+$`)
	placeholder = map[string]bool{"": true, "*": true}
)

// Summary is the digest of one course's internal marks.
type Summary struct {
	CourseCode string  `json:"courseCode"`
	CourseName string  `json:"courseName"`
	Test1      string  `json:"test1"`
	Test2      string  `json:"test2"`
	Final50    string  `json:"final50"`
	Final40    string  `json:"final40"`
	Total      float64 `json:"total"`
	Status     string  `json:"status"`
}

// Summarize digests a portal marks row. course is the "CODE - Title" label and
// marks the assessment cells, course name first.
func Summarize(course string, marks []string) Summary {
	code := course
	if before, _, found := strings.Cut(course, " - "); found {
		code = before
	}

	summary := Summary{
		CourseCode: clean(code),
		CourseName: clean(cell(marks, nameIndex)),
		Test1:      cell(marks, test1Index),
		Test2:      cell(marks, test2Index),
		Final50:    cell(marks, final50Index),
	}
	if len(marks) > 0 {
		summary.Final40 = cell(marks, len(marks)-1)
	}

	for _, mark := range []string{summary.Test1, summary.Test2, summary.Final50, summary.Final40} {
		if placeholder[strings.TrimSpace(mark)] {
			continue
		}
		if value, err := strconv.ParseFloat(strings.TrimSpace(mark), 64); err == nil {
			summary.Total += value
		}
	}
	summary.Status = Status(summary.Total)
	return summary
}

// Status labels a total.
func Status(total float64) string {
	switch {
	case total == 0:
		return StatusNoMarks
	case total >= 80:
		return StatusExcellent
	case total >= 60:
		return StatusGood
	case total >= 40:
		return StatusAverage
	default:
		return StatusNeedsImprovement
	}
}

func cell(marks []string, i int) string {
	if i < 0 || i >= len(marks) {
		return ""
	}
	return marks[i]
}

func clean(s string) string {
	s = programmeTags.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(edgeDashes.ReplaceAllString(s, ""))
}
