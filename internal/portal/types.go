package portal

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/nimora/nimora/internal/cgpa"
	"github.com/nimora/nimora/internal/leave"
	"github.com/nimora/nimora/internal/marks"
	"github.com/nimora/nimora/pkg/datetime"
)

// Credentials authenticate one student against the portal. They are passed
// to every call and never retained by the client.
type Credentials struct {
	RollNo   string `json:"rollno" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Text decodes a JSON string or number into a string. The portal service
// emits scraped cells as whichever it happened to parse.
type Text string

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*t = Text(n.String())
	}
	return nil
}

// Int parses the text as an integer, returning 0 for non-numeric values such as "-".
func (t Text) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(t)))
	if err != nil {
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(string(t)), 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

// AttendanceEntry is one course row from /attendance.
type AttendanceEntry struct {
	CourseCode   string `json:"course_code"`
	TotalClasses int    `json:"total_classes"`
	Present      int    `json:"present"`
	Absent       int    `json:"absent"`
	Percentage   Text   `json:"percentage"`
}

// Record converts the entry to the estimator's input.
func (e AttendanceEntry) Record() leave.Record {
	return leave.Record{
		CourseCode:     e.CourseCode,
		ClassesTotal:   e.TotalClasses,
		ClassesPresent: e.Present,
		Percentage:     string(e.Percentage),
	}
}

// Records converts attendance entries in order.
func Records(entries []AttendanceEntry) []leave.Record {
	records := make([]leave.Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, entry.Record())
	}
	return records
}

// LeaveSummary is one row of the /login response. Its columns are chosen by
// the portal service, so rows are kept as decoded.
type LeaveSummary map[string]any

// SemesterRecord is one row from /cgpa. Pending semesters carry "-".
type SemesterRecord struct {
	Semester     int  `json:"SEMESTER"`
	GPA          Text `json:"GPA"`
	CGPA         Text `json:"CGPA"`
	Credits      Text `json:"CREDITS"`
	TotalCredits Text `json:"TOTAL_CREDITS"`
	TotalPoints  Text `json:"TOTAL_POINTS"`
}

// Result converts the row to the cgpa package's form.
func (s SemesterRecord) Result() cgpa.SemesterResult {
	pending := s.CGPA == "" || s.CGPA == cgpa.Pending
	return cgpa.SemesterResult{
		Semester:     s.Semester,
		GPA:          string(s.GPA),
		CGPA:         string(s.CGPA),
		Credits:      s.Credits.Int(),
		TotalCredits: s.TotalCredits.Int(),
		TotalPoints:  s.TotalPoints.Int(),
		Pending:      pending,
	}
}

// SemesterResults converts every row.
func SemesterResults(records []SemesterRecord) []cgpa.SemesterResult {
	results := make([]cgpa.SemesterResult, 0, len(records))
	for _, record := range records {
		results = append(results, record.Result())
	}
	return results
}

// Exam is one scheduled assessment.
type Exam struct {
	CourseCode string `json:"COURSE_CODE"`
	Date       string `json:"DATE"`
	Time       string `json:"TIME"`
}

// ExamSchedule is the /exam-schedule response.
type ExamSchedule struct {
	Exams   []Exam `json:"exams"`
	Message string `json:"message,omitempty"`
}

// Sorted returns the exams in date order, undated ones last.
func (s ExamSchedule) Sorted() []Exam {
	exams := slices.Clone(s.Exams)
	slices.SortStableFunc(exams, func(a, b Exam) int {
		return datetime.CompareExamDates(a.Date, b.Date)
	})
	return exams
}

// InternalRecord is one row from /internals: the course label followed by
// assessment cells and, on rows longer than two cells, a trailing cell the
// portal appends.
type InternalRecord []Text

// Summary digests the row with the marks package.
func (r InternalRecord) Summary() marks.Summary {
	if len(r) == 0 {
		return marks.Summarize("", nil)
	}
	tail := r[1:]
	if len(r) > 2 {
		tail = r[1 : len(r)-1]
	}
	cells := make([]string, 0, len(tail))
	for _, cell := range tail {
		cells = append(cells, string(cell))
	}
	return marks.Summarize(string(r[0]), cells)
}

// InternalsResponse is the /internals response.
type InternalsResponse struct {
	Internals []InternalRecord `json:"internals"`
	Message   string           `json:"message,omitempty"`
}

// CourseRef names a current course.
type CourseRef struct {
	CourseCode string `json:"course_code"`
}

// CoursePrediction is the /predict-courses response: current courses plus the
// standing a CGPA projection starts from.
type CoursePrediction struct {
	Courses      []CourseRef `json:"courses"`
	PreviousCGPA *float64    `json:"previous_cgpa"`
	TotalCredits int         `json:"total_credits"`
	TotalPoints  float64     `json:"total_points"`
	Error        string      `json:"error,omitempty"`
}

// Standing converts the prior record for cgpa.Predict.
func (p CoursePrediction) Standing() cgpa.Standing {
	standing := cgpa.Standing{TotalCredits: p.TotalCredits, TotalPoints: p.TotalPoints}
	if p.PreviousCGPA != nil {
		standing.CGPA = *p.PreviousCGPA
	}
	return standing
}

// FeedbackStatus is the /auto-feedback response.
type FeedbackStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Overview bundles the data shown on the dashboard.
type Overview struct {
	Attendance []AttendanceEntry `json:"attendance"`
	Semesters  []SemesterRecord  `json:"semesters"`
	Exams      ExamSchedule      `json:"exams"`
}
