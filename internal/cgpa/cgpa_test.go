package cgpa

import (
	"errors"
	"testing"
)

func TestCompute(t *testing.T) {
	courses := []Course{
		{Code: "19XT31", Semester: 3, Grade: "A", Credits: 4},
		{Code: "19XT21", Semester: 2, Grade: "B+", Credits: 3},
		{Code: "19XT22", Semester: 2, Grade: "O", Credits: 4},
		{Code: "19XT11", Semester: 1, Grade: "A+", Credits: 4},
		{Code: "19XT12", Semester: 1, Grade: "B", Credits: 3},
		{Code: "19XT13", Semester: 1, Grade: "RA", Credits: 3},
	}

	results, err := Compute(courses, 0)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 semesters, got %d", len(results))
	}

	tests := []struct {
		semester     int
		gpa          string
		cgpa         string
		credits      int
		totalCredits int
		totalPoints  int
	}{
		// (9*4 + 6*3) / 7 = 54/7 = 7.714285...
		{1, "7.7142", "7.7142", 7, 7, 54},
		// (7*3 + 10*4) / 7 = 61/7 = 8.714285..., cumulative 115/14 = 8.214285...
		{2, "8.7142", "8.2142", 7, 14, 115},
		// 32/4 = 8, cumulative 147/18 = 8.1666...
		{3, "8.0000", "8.1666", 4, 18, 147},
	}

	for i, tt := range tests {
		got := results[i]
		if got.Semester != tt.semester || got.GPA != tt.gpa || got.CGPA != tt.cgpa ||
			got.Credits != tt.credits || got.TotalCredits != tt.totalCredits || got.TotalPoints != tt.totalPoints {
			t.Errorf("semester %d: got %+v, expected %+v", tt.semester, got, tt)
		}
		if got.Pending {
			t.Errorf("semester %d should not be pending", tt.semester)
		}
	}
}

func TestComputeStopsAtBacklogSemester(t *testing.T) {
	courses := []Course{
		{Semester: 3, Grade: "A", Credits: 4},
		{Semester: 2, Grade: "A", Credits: 4},
		{Semester: 1, Grade: "O", Credits: 4},
	}

	results, err := Compute(courses, 2)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if results[0].Pending || results[0].CGPA != "10.0000" {
		t.Errorf("expected semester 1 computed, got %+v", results[0])
	}
	for _, result := range results[1:] {
		if !result.Pending || result.GPA != Pending || result.CGPA != Pending {
			t.Errorf("semester %d should be pending, got %+v", result.Semester, result)
		}
		if result.TotalCredits != 4 || result.TotalPoints != 40 {
			t.Errorf("pending semester should carry running totals, got %+v", result)
		}
	}
}

func TestComputeEmptySemesterDoesNotStopRun(t *testing.T) {
	courses := []Course{
		{Semester: 3, Grade: "B", Credits: 2},
		{Semester: 1, Grade: "A", Credits: 2},
	}

	results, err := Compute(courses, 0)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !results[1].Pending {
		t.Errorf("expected semester 2 pending, got %+v", results[1])
	}
	if results[2].Pending || results[2].CGPA != "7.0000" {
		t.Errorf("expected semester 3 computed with CGPA 7.0000, got %+v", results[2])
	}
}

func TestComputeNoCourses(t *testing.T) {
	if _, err := Compute(nil, 0); !errors.Is(err, ErrNoCourses) {
		t.Errorf("expected ErrNoCourses, got %v", err)
	}
	if _, err := Compute([]Course{{Grade: "A", Credits: 3}}, 0); !errors.Is(err, ErrNoCourses) {
		t.Errorf("expected ErrNoCourses for missing semesters, got %v", err)
	}
}

func TestLatestStanding(t *testing.T) {
	results := []SemesterResult{
		{Semester: 1, GPA: "8.0000", CGPA: "8.0000", Credits: 20, TotalCredits: 20, TotalPoints: 160},
		{Semester: 2, GPA: "9.0000", CGPA: "8.5000", Credits: 20, TotalCredits: 40, TotalPoints: 340},
		{Semester: 3, GPA: Pending, CGPA: Pending, TotalCredits: 40, TotalPoints: 340, Pending: true},
	}

	standing, ok := LatestStanding(results)
	if !ok {
		t.Fatal("expected a standing")
	}
	if standing.CGPA != 8.5 || standing.TotalCredits != 40 || standing.TotalPoints != 340 {
		t.Errorf("unexpected standing %+v", standing)
	}

	if _, ok := LatestStanding(results[2:]); ok {
		t.Errorf("expected no standing when every row is pending")
	}
}

func TestPredict(t *testing.T) {
	prior := Standing{CGPA: 8.5, TotalCredits: 40, TotalPoints: 340}
	planned := []PlannedCourse{
		{Code: "23XT61", Credits: 3, Grade: "A"},
		{Code: "23XT62", Credits: 4, Grade: "o"},
		{Code: "23XT63", Credits: 3, Grade: "F"},
	}

	prediction, err := Predict(prior, planned)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	// semester: (24 + 40 + 0) / 10 = 6.4; overall: 404 / 50 = 8.08
	if prediction.SemesterGPA != "6.4000" {
		t.Errorf("expected semester GPA 6.4000, got %s", prediction.SemesterGPA)
	}
	if prediction.NewCGPA != "8.0800" {
		t.Errorf("expected new CGPA 8.0800, got %s", prediction.NewCGPA)
	}
	if prediction.TotalCredits != 50 || prediction.TotalPoints != 404 {
		t.Errorf("unexpected totals %+v", prediction)
	}
}

func TestPredictErrors(t *testing.T) {
	tests := []struct {
		name     string
		planned  []PlannedCourse
		sentinel error
	}{
		{"No courses", nil, ErrNoCredits},
		{"Zero credits", []PlannedCourse{{Code: "X", Credits: 0, Grade: "A"}}, ErrNoCredits},
		{"Unknown grade", []PlannedCourse{{Code: "X", Credits: 3, Grade: "Z"}}, nil},
		{"Negative credits", []PlannedCourse{{Code: "X", Credits: -3, Grade: "A"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Predict(Standing{}, tt.planned)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
		})
	}
}
