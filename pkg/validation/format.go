// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/nimora/nimora/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateTargetRange checks that a target percentage sits within the bounds
// offered to students. The estimator itself accepts anything in [0, 100].
func ValidateTargetRange(target, min, max float64) error {
	if min > max {
		return fmt.Errorf("target bounds are inverted: min %g > max %g", min, max)
	}
	if target < min || target > max {
		return fmt.Errorf("target percentage %g outside allowed range %g-%g", target, min, max)
	}
	return nil
}
