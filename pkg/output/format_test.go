package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/nimora/nimora/internal/leave"
)

func sampleTable() ([]leave.Record, []leave.Result) {
	records := []leave.Record{
		{CourseCode: "23XT61", ClassesTotal: 50, ClassesPresent: 40, Percentage: "80"},
		{CourseCode: "23XT62", ClassesTotal: 50, ClassesPresent: 30},
		{CourseCode: "23XT63", ClassesTotal: 0, ClassesPresent: 0},
	}
	results := []leave.Result{
		{CourseCode: "23XT61", AffordableLeaves: 3, Available: true},
		{CourseCode: "23XT62", AffordableLeaves: -30, Available: true},
		{CourseCode: "23XT63", Reason: "invalid attendance input: classesTotal must be positive, got 0"},
	}
	return records, results
}

func TestPrettyFormat(t *testing.T) {
	records, results := sampleTable()

	var buf bytes.Buffer
	PrettyFormat(&buf, 75, records, results)
	out := buf.String()

	for _, want := range []string{
		"--- Affordable leaves at 75% ---",
		"23XT61",
		"3 (can skip)",
		"-30 (attend required classes)",
		"- (unavailable)",
		"60.00",
		"Overall: 70 of 100 classes attended (70%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PrettyFormat output missing %q\n%s", want, out)
		}
	}
}

func TestPrettyFormatMarksSaturation(t *testing.T) {
	records := []leave.Record{{CourseCode: "BIG", ClassesTotal: 3000, ClassesPresent: 3000}}
	results := []leave.Result{{CourseCode: "BIG", AffordableLeaves: 1000, Saturated: true, Available: true}}

	var buf bytes.Buffer
	PrettyFormat(&buf, 50, records, results)
	if !strings.Contains(buf.String(), "1,000+ (can skip)") {
		t.Errorf("expected saturated marker, got\n%s", buf.String())
	}
}

func TestCsvFormat(t *testing.T) {
	records, results := sampleTable()

	rows, err := csv.NewReader(strings.NewReader(CsvString(records, results))).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}

	expected := [][]string{
		{"course", "total", "present", "absent", "percentage", "affordable leaves", "saturated", "note"},
		{"23XT61", "50", "40", "10", "80", "3", "false", ""},
		{"23XT62", "50", "30", "20", "60.00", "-30", "false", ""},
		{"23XT63", "0", "0", "0", "-", "", "false", "invalid attendance input: classesTotal must be positive, got 0"},
	}
	if len(rows) != len(expected) {
		t.Fatalf("expected %d rows, got %d", len(expected), len(rows))
	}
	for i := range expected {
		if strings.Join(rows[i], "|") != strings.Join(expected[i], "|") {
			t.Errorf("row %d: expected %q, got %q", i, expected[i], rows[i])
		}
	}
}

func TestCsvFormatQuotesReasons(t *testing.T) {
	records, results := sampleTable()

	lines := strings.Split(strings.TrimSpace(CsvString(records, results)), "\n")
	if !strings.HasPrefix(lines[3], `23XT63,0,0,0,-,,false,"invalid attendance input`) {
		t.Errorf("expected the comma-bearing reason to be quoted, got %q", lines[3])
	}
}
