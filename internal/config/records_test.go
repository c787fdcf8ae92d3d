package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCodes []string
		wantErr   bool
	}{
		{
			name: "Bare list",
			input: `- courseCode: 23XT61
  classesTotal: 50
  classesPresent: 40
- courseCode: 23XT62
  classesTotal: 20
  classesPresent: 20
`,
			wantCodes: []string{"23XT61", "23XT62"},
		},
		{
			name: "Records key",
			input: `records:
  - courseCode: 23XT63
    classesTotal: 10
    classesPresent: 8
    percentage: "80"
`,
			wantCodes: []string{"23XT63"},
		},
		{name: "Empty", input: "   \n", wantCodes: nil},
		{name: "Scalar", input: "just text", wantErr: true},
		{name: "Malformed", input: "- courseCode: [", wantErr: true},
		{name: "Wrong types", input: "- classesTotal: many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseRecords([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecords() error = %v", err)
			}
			if len(records) != len(tt.wantCodes) {
				t.Fatalf("expected %d records, got %d", len(tt.wantCodes), len(records))
			}
			for i, code := range tt.wantCodes {
				if records[i].CourseCode != code {
					t.Errorf("record %d: expected %s, got %s", i, code, records[i].CourseCode)
				}
			}
		})
	}
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.yaml")
	if err := os.WriteFile(path, []byte("- courseCode: 23XT61\n  classesTotal: 50\n  classesPresent: 40\n"), 0600); err != nil {
		t.Fatalf("failed to write records: %v", err)
	}

	records, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].ClassesTotal != 50 || records[0].ClassesPresent != 40 {
		t.Errorf("unexpected records %+v", records)
	}

	if _, err := LoadRecords(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
