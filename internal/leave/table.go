package leave

import (
	"errors"

	"github.com/nimora/nimora/pkg/mathutil"
	"go.uber.org/zap"
)

// Record holds one course's attendance counts for a reporting period.
type Record struct {
	CourseCode     string `json:"courseCode" yaml:"courseCode"`
	ClassesTotal   int    `json:"classesTotal" yaml:"classesTotal"`
	ClassesPresent int    `json:"classesPresent" yaml:"classesPresent"`
	// Percentage is the portal's own rendering of the ratio, passed through untouched.
	Percentage string `json:"percentage,omitempty" yaml:"percentage,omitempty"`
}

// Absent returns the number of missed classes.
func (r Record) Absent() int {
	return r.ClassesTotal - r.ClassesPresent
}

// Result is one row of the leave table.
type Result struct {
	CourseCode       string `json:"courseCode"`
	AffordableLeaves int    `json:"affordableLeaves"`
	Saturated        bool   `json:"saturated,omitempty"`
	// Available is false when the record could not be estimated; Reason says why.
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Advice returns the short hint shown next to the leave count.
func (r Result) Advice() string {
	switch {
	case !r.Available:
		return "unavailable"
	case r.AffordableLeaves < 0:
		return "attend required classes"
	case r.AffordableLeaves > 0:
		return "can skip"
	default:
		return ""
	}
}

// Summary aggregates attendance across all courses.
type Summary struct {
	TotalClasses      int `json:"totalClasses"`
	PresentClasses    int `json:"presentClasses"`
	AbsentClasses     int `json:"absentClasses"`
	OverallPercentage int `json:"overallPercentage"`
}

// BuildTable estimates affordable leaves for every record at the same target,
// preserving input order. An invalid target fails the call; an invalid record
// only marks its own row unavailable.
func BuildTable(logger *zap.Logger, records []Record, target float64) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(records))
	for _, record := range records {
		est, err := EstimateLeaves(record.ClassesPresent, record.ClassesTotal, target)
		if err != nil {
			var inputErr *InvalidInputError
			if !errors.As(err, &inputErr) {
				return nil, err
			}
			logger.Warn("skipping course with unusable attendance counts",
				zap.String("op", "leave.BuildTable"),
				zap.String("course", record.CourseCode),
				zap.Int("classesTotal", record.ClassesTotal),
				zap.Int("classesPresent", record.ClassesPresent),
				zap.Error(err),
			)
			results = append(results, Result{
				CourseCode: record.CourseCode,
				Reason:     inputErr.Error(),
			})
			continue
		}

		if est.Saturated {
			logger.Warn("leave simulation hit iteration cap, estimate is approximate",
				zap.String("op", "leave.BuildTable"),
				zap.String("course", record.CourseCode),
				zap.Float64("ratio", est.Ratio),
				zap.Float64("target", target),
				zap.Int("leaves", est.Leaves),
			)
		}

		results = append(results, Result{
			CourseCode:       record.CourseCode,
			AffordableLeaves: est.Leaves,
			Saturated:        est.Saturated,
			Available:        true,
		})
	}

	logger.Debug("leave table built",
		zap.String("op", "leave.BuildTable"),
		zap.Int("courses", len(results)),
		zap.Float64("target", target),
	)

	return results, nil
}

// Summarize totals classes across records. Records are summed as given, so
// malformed counts should be filtered by the caller first.
func Summarize(records []Record) Summary {
	var summary Summary
	for _, record := range records {
		summary.TotalClasses += record.ClassesTotal
		summary.PresentClasses += record.ClassesPresent
		summary.AbsentClasses += record.Absent()
	}
	if summary.TotalClasses > 0 {
		summary.OverallPercentage = mathutil.RoundPercentage(
			mathutil.Ratio(summary.PresentClasses, summary.TotalClasses))
	}
	return summary
}
