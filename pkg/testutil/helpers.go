// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/nimora/nimora/internal/leave"
)

// FindCourse finds a course by code in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindCourse(results []leave.Result, code string) *leave.Result {
	for i := range results {
		if results[i].CourseCode == code {
			return &results[i]
		}
	}
	return nil
}
