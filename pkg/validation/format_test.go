package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{"Valid pretty format", "pretty", false},
		{"Valid csv format", "csv", false},
		{"JSON is not an output format", "json", true},
		{"Empty format", "", true},
		{"Case sensitive", "CSV", true},
		{"Surrounding spaces", " pretty ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateOutputFormat(%q) expected error but got none", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error = %v", tt.format, err)
			}
		})
	}
}

func TestValidateOutputFormatErrorMessage(t *testing.T) {
	err := ValidateOutputFormat("xml")
	if err == nil {
		t.Fatal("expected error for xml")
	}
	if !strings.Contains(err.Error(), "xml") {
		t.Errorf("error should name the rejected format, got %q", err.Error())
	}
}

func TestValidateTargetRange(t *testing.T) {
	tests := []struct {
		name      string
		target    float64
		min       float64
		max       float64
		expectErr bool
	}{
		{"Default target", 75, 50, 100, false},
		{"Lower bound inclusive", 50, 50, 100, false},
		{"Upper bound inclusive", 100, 50, 100, false},
		{"Below range", 49, 50, 100, true},
		{"Above range", 101, 50, 100, true},
		{"Inverted bounds", 75, 90, 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetRange(tt.target, tt.min, tt.max)
			if tt.expectErr != (err != nil) {
				t.Errorf("ValidateTargetRange(%v, %v, %v) error = %v, expectErr %v", tt.target, tt.min, tt.max, err, tt.expectErr)
			}
		})
	}
}
