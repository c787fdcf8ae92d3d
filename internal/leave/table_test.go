package leave

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildTablePreservesOrder(t *testing.T) {
	records := []Record{
		{CourseCode: "23XT61", ClassesTotal: 50, ClassesPresent: 40},
		{CourseCode: "23XT62", ClassesTotal: 50, ClassesPresent: 30},
		{CourseCode: "23XT63", ClassesTotal: 10, ClassesPresent: 10},
	}

	results, err := BuildTable(zap.NewNop(), records, 75)
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}
	if len(results) != len(records) {
		t.Fatalf("expected %d results, got %d", len(records), len(results))
	}

	expected := []int{3, -30, 3}
	for i, result := range results {
		if result.CourseCode != records[i].CourseCode {
			t.Errorf("row %d: expected course %s, got %s", i, records[i].CourseCode, result.CourseCode)
		}
		if !result.Available {
			t.Errorf("row %d: expected available result", i)
		}
		if result.AffordableLeaves != expected[i] {
			t.Errorf("row %d: expected %d leaves, got %d", i, expected[i], result.AffordableLeaves)
		}
	}
}

func TestBuildTableMarksInvalidRecords(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	records := []Record{
		{CourseCode: "EMPTY", ClassesTotal: 0, ClassesPresent: 0},
		{CourseCode: "OK", ClassesTotal: 10, ClassesPresent: 8},
	}

	results, err := BuildTable(logger, records, 100)
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}
	if results[0].Available {
		t.Errorf("expected first row unavailable")
	}
	if results[0].Reason == "" {
		t.Errorf("expected a reason for unavailable row")
	}
	if results[0].Advice() != "unavailable" {
		t.Errorf("expected unavailable advice, got %q", results[0].Advice())
	}
	if !results[1].Available || results[1].AffordableLeaves != -2 {
		t.Errorf("expected -2 for second row, got %+v", results[1])
	}
	if logs.FilterField(zap.String("course", "EMPTY")).Len() != 1 {
		t.Errorf("expected one warning for the invalid course, got %d", logs.Len())
	}
}

func TestBuildTableRejectsInvalidTarget(t *testing.T) {
	_, err := BuildTable(nil, []Record{{CourseCode: "X", ClassesTotal: 1, ClassesPresent: 1}}, 120)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildTableLogsSaturation(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	results, err := BuildTable(zap.New(core), []Record{{CourseCode: "BIG", ClassesTotal: 3000, ClassesPresent: 3000}}, 50)
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}
	if !results[0].Saturated {
		t.Errorf("expected saturated row")
	}
	if logs.FilterMessageSnippet("iteration cap").Len() != 1 {
		t.Errorf("expected a saturation warning")
	}
}

func TestBuildTableEmpty(t *testing.T) {
	results, err := BuildTable(nil, nil, 75)
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no rows, got %d", len(results))
	}
}

func TestResultAdvice(t *testing.T) {
	tests := []struct {
		result   Result
		expected string
	}{
		{Result{Available: true, AffordableLeaves: 2}, "can skip"},
		{Result{Available: true, AffordableLeaves: -1}, "attend required classes"},
		{Result{Available: true}, ""},
		{Result{}, "unavailable"},
	}
	for _, tt := range tests {
		if got := tt.result.Advice(); got != tt.expected {
			t.Errorf("Advice() for %+v = %q, expected %q", tt.result, got, tt.expected)
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{CourseCode: "A", ClassesTotal: 50, ClassesPresent: 40},
		{CourseCode: "B", ClassesTotal: 30, ClassesPresent: 21},
	}

	summary := Summarize(records)
	if summary.TotalClasses != 80 || summary.PresentClasses != 61 || summary.AbsentClasses != 19 {
		t.Errorf("unexpected totals %+v", summary)
	}
	// 61/80 = 76.25%
	if summary.OverallPercentage != 76 {
		t.Errorf("expected overall 76, got %d", summary.OverallPercentage)
	}

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", empty)
	}
}

func BenchmarkBuildTable(b *testing.B) {
	records := make([]Record, 0, 12)
	for i := 0; i < 12; i++ {
		records = append(records, Record{CourseCode: "C", ClassesTotal: 60 + i, ClassesPresent: 40 + i})
	}
	logger := zap.NewNop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildTable(logger, records, 75); err != nil {
			b.Fatal(err)
		}
	}
}
