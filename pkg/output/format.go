// Package output provides utilities for formatting and displaying leave tables.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nimora/nimora/internal/leave"
	"github.com/nimora/nimora/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable table.
// records and results are matched by index.
func PrettyFormat(w io.Writer, target float64, records []leave.Record, results []leave.Result) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "--- Affordable leaves at %g%% ---\n", target)
	_, _ = fmt.Fprintf(w, "%-12s | %6s | %7s | %6s | %10s | %s\n", "Course", "Total", "Present", "Absent", "Percentage", "Leaves")
	_, _ = fmt.Fprintf(w, "%-12s | %6s | %7s | %6s | %10s | %s\n", "______", "_____", "_______", "______", "__________", "______")
	for i, result := range results {
		record := recordAt(records, i)
		leaves := "-"
		if result.Available {
			leaves = p.Sprintf("%d", result.AffordableLeaves)
			if result.Saturated {
				leaves += "+"
			}
		}
		if advice := result.Advice(); advice != "" {
			leaves += " (" + advice + ")"
		}
		_, _ = p.Fprintf(w, "%-12s | %6d | %7d | %6d | %10s | %s\n",
			result.CourseCode, record.ClassesTotal, record.ClassesPresent, record.Absent(), percentage(record), leaves)
	}

	summary := leave.Summarize(records)
	_, _ = p.Fprintf(w, "\nOverall: %d of %d classes attended (%d%%)\n",
		summary.PresentClasses, summary.TotalClasses, summary.OverallPercentage)
}

// CsvFormat writes the table in comma-separated value format.
func CsvFormat(w io.Writer, records []leave.Record, results []leave.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"course", "total", "present", "absent", "percentage", "affordable leaves", "saturated", "note"}); err != nil {
		return err
	}
	for i, result := range results {
		record := recordAt(records, i)
		leaves := ""
		if result.Available {
			leaves = strconv.Itoa(result.AffordableLeaves)
		}
		row := []string{
			result.CourseCode,
			strconv.Itoa(record.ClassesTotal),
			strconv.Itoa(record.ClassesPresent),
			strconv.Itoa(record.Absent()),
			percentage(record),
			leaves,
			strconv.FormatBool(result.Saturated),
			result.Reason,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns the CSV rendering as a string.
func CsvString(records []leave.Record, results []leave.Result) string {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, records, results); err != nil {
		return ""
	}
	return buf.String()
}

func recordAt(records []leave.Record, i int) leave.Record {
	if i < len(records) {
		return records[i]
	}
	return leave.Record{}
}

func percentage(record leave.Record) string {
	if record.Percentage != "" {
		return record.Percentage
	}
	if record.ClassesTotal <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", mathutil.CalculatePercentage(float64(record.ClassesPresent), float64(record.ClassesTotal)))
}
