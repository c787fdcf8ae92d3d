// Package cgpa computes semester GPA, running CGPA and CGPA projections from
// letter grades and course credits.
package cgpa

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nimora/nimora/pkg/mathutil"
)

// Pending marks a semester whose GPA cannot be reported yet.
const Pending = "-"

// GradePoints maps letter grades to grade points.
var GradePoints = map[string]int{
	"O":  10,
	"A+": 9,
	"A":  8,
	"B+": 7,
	"B":  6,
	"C":  5,
	"F":  0,
}

var (
	// ErrNoCourses is returned when there is nothing to compute from.
	ErrNoCourses = errors.New("no completed courses")
	// ErrNoCredits is returned when a projection covers zero credits.
	ErrNoCredits = errors.New("no credits to compute from")
)

// Course is one completed course.
type Course struct {
	Code     string `json:"code"`
	Title    string `json:"title,omitempty"`
	Semester int    `json:"semester" validate:"gte=1"`
	Grade    string `json:"grade" validate:"required"`
	Credits  int    `json:"credits" validate:"gte=0"`
}

// SemesterResult is one row of the GPA table.
type SemesterResult struct {
	Semester     int    `json:"semester"`
	GPA          string `json:"gpa"`
	CGPA         string `json:"cgpa"`
	Credits      int    `json:"credits"`
	TotalCredits int    `json:"totalCredits"`
	TotalPoints  int    `json:"totalPoints"`
	Pending      bool   `json:"pending,omitempty"`
}

// Points returns the grade points for a letter grade.
func Points(grade string) (int, bool) {
	points, ok := GradePoints[strings.ToUpper(strings.TrimSpace(grade))]
	return points, ok
}

// Compute builds the GPA table for semesters 1 through the latest semester
// present in courses. completedSemester is the earliest semester that still
// has courses in progress or in backlog; it and every later semester are
// reported as pending. A semester with no gradable courses is pending too,
// but later semesters are still computed. Courses with unknown or failing
// grades are skipped.
func Compute(courses []Course, completedSemester int) ([]SemesterResult, error) {
	if len(courses) == 0 {
		return nil, ErrNoCourses
	}

	latest := 0
	bySemester := make(map[int][]Course)
	for _, course := range courses {
		if course.Semester > latest {
			latest = course.Semester
		}
		bySemester[course.Semester] = append(bySemester[course.Semester], course)
	}
	if latest < 1 {
		return nil, fmt.Errorf("%w: no course has a semester number", ErrNoCourses)
	}

	results := make([]SemesterResult, 0, latest)
	totalPoints, totalCredits := 0, 0
	backlog := false
	for semester := 1; semester <= latest; semester++ {
		pending := SemesterResult{
			Semester:     semester,
			GPA:          Pending,
			CGPA:         Pending,
			TotalCredits: totalCredits,
			TotalPoints:  totalPoints,
			Pending:      true,
		}
		if backlog || semester == completedSemester {
			backlog = true
			results = append(results, pending)
			continue
		}

		semesterPoints, semesterCredits := 0, 0
		for _, course := range bySemester[semester] {
			points, ok := Points(course.Grade)
			if !ok || points == 0 {
				continue
			}
			semesterPoints += points * course.Credits
			semesterCredits += course.Credits
		}
		if semesterCredits == 0 {
			results = append(results, pending)
			continue
		}

		totalPoints += semesterPoints
		totalCredits += semesterCredits
		results = append(results, SemesterResult{
			Semester:     semester,
			GPA:          mathutil.TruncateDecimal(float64(semesterPoints)/float64(semesterCredits), 4),
			CGPA:         mathutil.TruncateDecimal(float64(totalPoints)/float64(totalCredits), 4),
			Credits:      semesterCredits,
			TotalCredits: totalCredits,
			TotalPoints:  totalPoints,
		})
	}

	return results, nil
}

// Standing is the cumulative record a projection starts from.
type Standing struct {
	CGPA         float64 `json:"cgpa"`
	TotalCredits int     `json:"totalCredits" validate:"gte=0"`
	TotalPoints  float64 `json:"totalPoints" validate:"gte=0"`
}

// LatestStanding returns the standing after the last computed semester.
func LatestStanding(results []SemesterResult) (Standing, bool) {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Pending {
			continue
		}
		cgpa, err := strconv.ParseFloat(results[i].CGPA, 64)
		if err != nil {
			continue
		}
		return Standing{
			CGPA:         cgpa,
			TotalCredits: results[i].TotalCredits,
			TotalPoints:  float64(results[i].TotalPoints),
		}, true
	}
	return Standing{}, false
}

// PlannedCourse is a current course with an expected grade.
type PlannedCourse struct {
	Code    string `json:"code"`
	Credits int    `json:"credits" validate:"gte=0"`
	Grade   string `json:"grade" validate:"required"`
}

// Prediction is the projected outcome of a semester.
type Prediction struct {
	SemesterGPA     string  `json:"semesterGpa"`
	NewCGPA         string  `json:"newCgpa"`
	SemesterCredits int     `json:"semesterCredits"`
	SemesterPoints  float64 `json:"semesterPoints"`
	TotalCredits    int     `json:"totalCredits"`
	TotalPoints     float64 `json:"totalPoints"`
}

// Predict projects the semester GPA and the resulting CGPA if every planned
// course earns its expected grade.
func Predict(prior Standing, planned []PlannedCourse) (Prediction, error) {
	var prediction Prediction
	for _, course := range planned {
		points, ok := Points(course.Grade)
		if !ok {
			return Prediction{}, fmt.Errorf("course %s: unknown grade %q", course.Code, course.Grade)
		}
		if course.Credits < 0 {
			return Prediction{}, fmt.Errorf("course %s: negative credits %d", course.Code, course.Credits)
		}
		prediction.SemesterCredits += course.Credits
		prediction.SemesterPoints += float64(points * course.Credits)
	}
	if prediction.SemesterCredits == 0 {
		return Prediction{}, ErrNoCredits
	}

	prediction.TotalCredits = prior.TotalCredits + prediction.SemesterCredits
	prediction.TotalPoints = prior.TotalPoints + prediction.SemesterPoints
	prediction.SemesterGPA = strconv.FormatFloat(prediction.SemesterPoints/float64(prediction.SemesterCredits), 'f', 4, 64)
	prediction.NewCGPA = strconv.FormatFloat(prediction.TotalPoints/float64(prediction.TotalCredits), 'f', 4, 64)
	return prediction, nil
}
