// Package leave computes how many classes a student can still skip, or must
// still attend, to hold a target attendance percentage.
//
// The estimate is a bounded simulation: absences (or attendances) are added
// one class at a time until the attendance ratio crosses the target. Both
// simulations stop after MaxIterations steps; a stopped simulation reports
// Saturated and its Leaves value is a lower bound on the true magnitude, not
// an exact count.
package leave

import (
	"errors"
	"fmt"
	"math"

	"github.com/nimora/nimora/pkg/mathutil"
)

// MaxIterations caps each simulation loop.
const MaxIterations = 1000

// fullAttendance is the target that switches to the literal deficit rule.
const fullAttendance = 100.0

// ErrInvalidInput is matched by every *InvalidInputError.
var ErrInvalidInput = errors.New("invalid attendance input")

// InvalidInputError reports attendance counts or a target that cannot be
// estimated, such as zero total classes.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid attendance input: %s %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Estimate is the outcome of one leave simulation.
type Estimate struct {
	// Leaves is positive when that many further absences keep the ratio at or
	// above the target, and negative when |Leaves| more classes must be
	// attended before the ratio exceeds it.
	Leaves int
	// Ratio is the current attendance percentage.
	Ratio float64
	// Iterations counts simulated classes.
	Iterations int
	// Saturated is set when the simulation hit MaxIterations.
	Saturated bool
}

// ValidateTarget checks that a target percentage lies in [0, 100].
func ValidateTarget(target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return &InvalidInputError{Field: "targetPercentage", Reason: "must be a finite number"}
	}
	if target < 0 || target > fullAttendance {
		return &InvalidInputError{Field: "targetPercentage", Reason: fmt.Sprintf("must be between 0 and 100, got %g", target)}
	}
	return nil
}

// ValidateCounts checks present/total class counts.
func ValidateCounts(present, total int) error {
	switch {
	case total <= 0:
		return &InvalidInputError{Field: "classesTotal", Reason: fmt.Sprintf("must be positive, got %d", total)}
	case present < 0:
		return &InvalidInputError{Field: "classesPresent", Reason: fmt.Sprintf("must not be negative, got %d", present)}
	case present > total:
		return &InvalidInputError{Field: "classesPresent", Reason: fmt.Sprintf("%d exceeds classesTotal %d", present, total)}
	}
	return nil
}

// AffordableLeaves returns the signed number of classes that can be skipped
// (positive) or must still be attended (negative) to hold target. When the
// simulation saturates the returned value is ±MaxIterations; use
// EstimateLeaves to detect that case.
func AffordableLeaves(present, total int, target float64) (int, error) {
	est, err := EstimateLeaves(present, total, target)
	if err != nil {
		return 0, err
	}
	return est.Leaves, nil
}

// EstimateLeaves runs the leave simulation for one course.
//
// A 100% target is special-cased: a perfect record yields 0 and any other
// record yields minus the number of classes already missed. No simulation
// runs for it.
func EstimateLeaves(present, total int, target float64) (Estimate, error) {
	if err := ValidateCounts(present, total); err != nil {
		return Estimate{}, err
	}
	if err := ValidateTarget(target); err != nil {
		return Estimate{}, err
	}

	est := Estimate{Ratio: mathutil.Ratio(present, total)}

	if target == fullAttendance {
		if est.Ratio != fullAttendance {
			est.Leaves = -(total - present)
		}
		return est, nil
	}

	if est.Ratio < target {
		// Attend one more class per step.
		for i := 1; mathutil.Ratio(present+i, total+i) <= target; i++ {
			if est.Iterations == MaxIterations {
				est.Saturated = true
				break
			}
			est.Leaves--
			est.Iterations++
		}
		return est, nil
	}

	// Miss one more class per step.
	for i := 1; mathutil.Ratio(present, total+i) >= target; i++ {
		if est.Iterations == MaxIterations {
			est.Saturated = true
			break
		}
		est.Leaves++
		est.Iterations++
	}
	return est, nil
}
