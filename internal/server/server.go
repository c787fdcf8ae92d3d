package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nimora/nimora/internal/cgpa"
	"github.com/nimora/nimora/internal/config"
	"github.com/nimora/nimora/internal/leave"
	"github.com/nimora/nimora/internal/marks"
	"github.com/nimora/nimora/internal/portal"
	"github.com/nimora/nimora/pkg/constants"
	"github.com/nimora/nimora/pkg/datetime"
	"github.com/nimora/nimora/pkg/output"
	"github.com/nimora/nimora/pkg/validation"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Portal is the part of the portal client the handlers call.
type Portal interface {
	Login(ctx context.Context, creds portal.Credentials) ([]portal.LeaveSummary, error)
	Attendance(ctx context.Context, creds portal.Credentials) ([]portal.AttendanceEntry, error)
	CGPA(ctx context.Context, creds portal.Credentials) ([]portal.SemesterRecord, error)
	ExamSchedule(ctx context.Context, creds portal.Credentials) (portal.ExamSchedule, error)
	Internals(ctx context.Context, creds portal.Credentials) ([]portal.InternalRecord, error)
	PredictCourses(ctx context.Context, creds portal.Credentials) (portal.CoursePrediction, error)
	AutoFeedback(ctx context.Context, creds portal.Credentials, index int) (portal.FeedbackStatus, error)
	Overview(ctx context.Context, creds portal.Credentials) (portal.Overview, error)
}

// Options tune the handler. Zero values fall back to defaults.
type Options struct {
	MaxRequestSize int64
	Version        string
	Attendance     config.AttendanceConfig
	// Now is used to count days to exams.
	Now func() time.Time
}

type handler struct {
	logger         *zap.Logger
	portal         Portal
	validate       *validator.Validate
	maxRequestSize int64
	version        string
	attendance     config.AttendanceConfig
	now            func() time.Time
}

type requestIDKey struct{}

// NewHandler constructs the HTTP handler for the attendance API. A nil portal
// disables the endpoints that need the portal service.
func NewHandler(logger *zap.Logger, p Portal, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &handler{
		logger:         logger,
		portal:         p,
		validate:       newValidator(),
		maxRequestSize: opts.MaxRequestSize,
		version:        strings.TrimSpace(opts.Version),
		attendance:     opts.Attendance,
		now:            opts.Now,
	}
	if h.maxRequestSize <= 0 {
		h.maxRequestSize = constants.DefaultMaxRequestSizeBytes
	}
	if h.version == "" {
		h.version = "dev"
	}
	if h.attendance.MinTarget == 0 && h.attendance.MaxTarget == 0 {
		h.attendance.MinTarget = constants.MinTargetPercentage
		h.attendance.MaxTarget = constants.MaxTargetPercentage
	}
	if h.attendance.TargetPercentage == 0 {
		h.attendance.TargetPercentage = constants.DefaultTargetPercentage
	}
	if h.now == nil {
		h.now = time.Now
	}

	mux := http.NewServeMux()

	// Pure estimator endpoints
	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/api/leaves/estimate", h.handleEstimate)
	mux.HandleFunc("/api/leaves", h.handleLeaves)
	mux.HandleFunc("/api/cgpa/predict", h.handlePredict)
	mux.HandleFunc("/api/cgpa/compute", h.handleCompute)

	// Endpoints backed by the portal service
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/attendance", h.handleAttendance)
	mux.HandleFunc("/api/cgpa", h.handleCGPA)
	mux.HandleFunc("/api/exams", h.handleExams)
	mux.HandleFunc("/api/internals", h.handleInternals)
	mux.HandleFunc("/api/feedback", h.handleFeedback)
	mux.HandleFunc("/api/overview", h.handleOverview)

	return h.withRequestID(mux)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		h.logger.Debug("request served",
			zap.String("op", "server.withRequestID"),
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

type leaveRow struct {
	CourseCode       string `json:"courseCode"`
	ClassesTotal     int    `json:"classesTotal"`
	ClassesPresent   int    `json:"classesPresent"`
	ClassesAbsent    int    `json:"classesAbsent"`
	Percentage       string `json:"percentage,omitempty"`
	AffordableLeaves int    `json:"affordableLeaves"`
	Saturated        bool   `json:"saturated,omitempty"`
	Available        bool   `json:"available"`
	Advice           string `json:"advice,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

type leaveTableResponse struct {
	Target  float64       `json:"target"`
	Rows    []leaveRow    `json:"rows"`
	Summary leave.Summary `json:"summary"`
	CSV     string        `json:"csv"`
}

type estimateResponse struct {
	Present          int     `json:"present"`
	Total            int     `json:"total"`
	Target           float64 `json:"target"`
	Ratio            float64 `json:"ratio"`
	AffordableLeaves int     `json:"affordableLeaves"`
	Saturated        bool    `json:"saturated,omitempty"`
	Advice           string  `json:"advice,omitempty"`
}

type leavesRequest struct {
	Target  *float64       `json:"target"`
	Records []leave.Record `json:"records"`
}

type attendanceRequest struct {
	portal.Credentials
	Target *float64 `json:"target"`
}

// predictRequest takes either a standing and planned courses, or portal
// credentials. With credentials the standing and course list come from the
// portal unless the request supplies them.
type predictRequest struct {
	RollNo   string               `json:"rollno,omitempty" validate:"required_with=Password"`
	Password string               `json:"password,omitempty" validate:"required_with=RollNo"`
	Standing *cgpa.Standing       `json:"standing"`
	Courses  []cgpa.PlannedCourse `json:"courses" validate:"omitempty,dive"`
}

type predictResponse struct {
	Standing       cgpa.Standing      `json:"standing"`
	CurrentCourses []portal.CourseRef `json:"currentCourses,omitempty"`
	Prediction     *cgpa.Prediction   `json:"prediction,omitempty"`
	Warning        string             `json:"warning,omitempty"`
}

type computeRequest struct {
	Courses           []cgpa.Course `json:"courses" validate:"required,min=1,dive"`
	CompletedSemester int           `json:"completedSemester" validate:"gte=0"`
}

type loginResponse struct {
	Target  float64               `json:"target"`
	Courses []portal.LeaveSummary `json:"courses"`
}

type overviewResponse struct {
	Attendance leaveTableResponse `json:"attendance"`
	CGPA       cgpaResponse       `json:"cgpa"`
	Exams      examsResponse      `json:"exams"`
}

type feedbackRequest struct {
	portal.Credentials
	FeedbackIndex int `json:"feedbackIndex" validate:"gte=0,lte=1"`
}

type examView struct {
	CourseCode    string           `json:"courseCode"`
	Date          string           `json:"date"`
	Time          string           `json:"time"`
	DaysRemaining *int             `json:"daysRemaining,omitempty"`
	Label         string           `json:"label,omitempty"`
	Urgency       datetime.Urgency `json:"urgency,omitempty"`
}

type examsResponse struct {
	Exams   []examView `json:"exams"`
	Message string     `json:"message,omitempty"`
}

type cgpaResponse struct {
	Semesters []cgpa.SemesterResult `json:"semesters"`
	Standing  *cgpa.Standing        `json:"standing,omitempty"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	op := "server.handleEstimate"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	present, err := strconv.Atoi(query.Get("present"))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("invalid present count %q", query.Get("present")), op)
		return
	}
	total, err := strconv.Atoi(query.Get("total"))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("invalid total count %q", query.Get("total")), op)
		return
	}
	var requested *float64
	if raw := query.Get("target"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("invalid target %q", raw), op)
			return
		}
		requested = &value
	}
	target, err := h.resolveTarget(requested)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	estimate, err := leave.EstimateLeaves(present, total, target)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}

	result := leave.Result{AffordableLeaves: estimate.Leaves, Saturated: estimate.Saturated, Available: true}
	h.writeJSON(w, http.StatusOK, estimateResponse{
		Present:          present,
		Total:            total,
		Target:           target,
		Ratio:            estimate.Ratio,
		AffordableLeaves: estimate.Leaves,
		Saturated:        estimate.Saturated,
		Advice:           result.Advice(),
	})
}

func (h *handler) handleLeaves(w http.ResponseWriter, r *http.Request) {
	op := "server.handleLeaves"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req leavesRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	target, err := h.resolveTarget(req.Target)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.respondTable(w, r, req.Records, target, op)
}

// handleLogin checks credentials against the portal and returns the service's
// own attendance summary, which it computes at a fixed target.
func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	op := "server.handleLogin"
	if !h.requirePortal(w, r, op) {
		return
	}

	var creds portal.Credentials
	if !h.decode(w, r, &creds, op) {
		return
	}

	courses, err := h.portal.Login(r.Context(), creds)
	if err != nil {
		h.respondPortalError(w, r, err, op)
		return
	}

	h.logger.Info("student logged in",
		zap.String("op", op),
		zap.String("request_id", requestID(r)),
		zap.Int("courses", len(courses)),
	)
	if courses == nil {
		courses = []portal.LeaveSummary{}
	}
	h.writeJSON(w, http.StatusOK, loginResponse{Target: constants.LoginTargetPercentage, Courses: courses})
}

func (h *handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	op := "server.handleOverview"
	if !h.requirePortal(w, r, op) {
		return
	}

	var req attendanceRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	target, err := h.resolveTarget(req.Target)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	overview, err := h.portal.Overview(r.Context(), req.Credentials)
	if err != nil {
		h.respondPortalError(w, r, err, op)
		return
	}

	attendance, err := h.buildTable(r, portal.Records(overview.Attendance), target, op)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, overviewResponse{
		Attendance: attendance,
		CGPA:       newCGPAResponse(portal.SemesterResults(overview.Semesters)),
		Exams:      h.examsView(overview.Exams),
	})
}

func (h *handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	op := "server.handleAttendance"
	if !h.requirePortal(w, r, op) {
		return
	}

	var req attendanceRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	target, err := h.resolveTarget(req.Target)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	entries, err := h.portal.Attendance(r.Context(), req.Credentials)
	if err != nil {
		h.respondPortalError(w, r, err, op)
		return
	}

	h.respondTable(w, r, portal.Records(entries), target, op)
}

func (h *handler) respondTable(w http.ResponseWriter, r *http.Request, records []leave.Record, target float64, op string) {
	table, err := h.buildTable(r, records, target, op)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, table)
}

func (h *handler) buildTable(r *http.Request, records []leave.Record, target float64, op string) (leaveTableResponse, error) {
	results, err := leave.BuildTable(h.logger.With(zap.String("request_id", requestID(r))), records, target)
	if err != nil {
		return leaveTableResponse{}, err
	}

	rows := make([]leaveRow, 0, len(results))
	for i, result := range results {
		record := records[i]
		rows = append(rows, leaveRow{
			CourseCode:       result.CourseCode,
			ClassesTotal:     record.ClassesTotal,
			ClassesPresent:   record.ClassesPresent,
			ClassesAbsent:    record.Absent(),
			Percentage:       record.Percentage,
			AffordableLeaves: result.AffordableLeaves,
			Saturated:        result.Saturated,
			Available:        result.Available,
			Advice:           result.Advice(),
			Reason:           result.Reason,
		})
	}

	h.logger.Info("leave table computed",
		zap.String("op", op),
		zap.String("request_id", requestID(r)),
		zap.Int("courses", len(rows)),
		zap.Float64("target", target),
	)

	return leaveTableResponse{
		Target:  target,
		Rows:    rows,
		Summary: leave.Summarize(records),
		CSV:     output.CsvString(records, results),
	}, nil
}

func (h *handler) handleCGPA(w http.ResponseWriter, r *http.Request) {
	op := "server.handleCGPA"
	if !h.requirePortal(w, r, op) {
		return
	}

	var creds portal.Credentials
	if !h.decode(w, r, &creds, op) {
		return
	}

	records, err := h.portal.CGPA(r.Context(), creds)
	if err != nil {
		h.respondPortalError(w, r, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, newCGPAResponse(portal.SemesterResults(records)))
}

func newCGPAResponse(semesters []cgpa.SemesterResult) cgpaResponse {
	response := cgpaResponse{Semesters: semesters}
	if standing, ok := cgpa.LatestStanding(semesters); ok {
		response.Standing = &standing
	}
	return response
}

func (h *handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	op := "server.handleCompute"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req computeRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	semesters, err := cgpa.Compute(req.Courses, req.CompletedSemester)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, newCGPAResponse(semesters))
}

func (h *handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	op := "server.handlePredict"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req predictRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	var response predictResponse
	if req.Standing != nil {
		response.Standing = *req.Standing
	}
	if req.RollNo != "" {
		if !h.requirePortal(w, r, op) {
			return
		}
		current, err := h.portal.PredictCourses(r.Context(), portal.Credentials{RollNo: req.RollNo, Password: req.Password})
		if err != nil {
			h.respondPortalError(w, r, err, op)
			return
		}
		if req.Standing == nil {
			response.Standing = current.Standing()
		}
		response.CurrentCourses = current.Courses
		response.Warning = current.Error
	} else if len(req.Courses) == 0 {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "courses are required without portal credentials", op)
		return
	}

	if len(req.Courses) > 0 {
		prediction, err := cgpa.Predict(response.Standing, req.Courses)
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
		response.Prediction = &prediction
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleExams(w http.ResponseWriter, r *http.Request) {
	op := "server.handleExams"
	if !h.requirePortal(w, r, op) {
		return
	}

	var creds portal.Credentials
	if !h.decode(w, r, &creds, op) {
		return
	}

	schedule, err := h.portal.ExamSchedule(r.Context(), creds)
	if err != nil {
		h.respondPortalError(w, r, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, h.examsView(schedule))
}

func (h *handler) examsView(schedule portal.ExamSchedule) examsResponse {
	now := h.now()
	sorted := schedule.Sorted()
	views := make([]examView, 0, len(sorted))
	for _, exam := range sorted {
		view := examView{CourseCode: exam.CourseCode, Date: exam.Date, Time: exam.Time}
		if date, err := datetime.ParseExamDate(exam.Date); err == nil {
			days := datetime.DaysUntil(date, now)
			view.DaysRemaining = &days
			view.Label = datetime.DescribeDays(days)
			view.Urgency = datetime.ClassifyDays(days)
		}
		views = append(views, view)
	}

	return examsResponse{Exams: views, Message: schedule.Message}
}

func (h *handler) handleInternals(w http.ResponseWriter, r *http.Request) {
	op := "server.handleInternals"
	if !h.requirePortal(w, r, op) {
		return
	}

	var creds portal.Credentials
	if !h.decode(w, r, &creds, op) {
		return
	}

	records, err := h.portal.Internals(r.Context(), creds)
	if err != nil {
		h.respondPortalError(w, r, err, op)
		return
	}

	summaries := make([]marks.Summary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, record.Summary())
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	op := "server.handleFeedback"
	if !h.requirePortal(w, r, op) {
		return
	}

	var req feedbackRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	status, err := h.portal.AutoFeedback(r.Context(), req.Credentials, req.FeedbackIndex)
	if err != nil {
		h.respondPortalError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusAccepted, status)
}

// requirePortal rejects non-POST requests and requests arriving while no
// portal service is configured.
func (h *handler) requirePortal(w http.ResponseWriter, r *http.Request, op string) bool {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}
	if h.portal == nil {
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, "portal service is not configured", op)
		return false
	}
	return true
}

// resolveTarget applies the default target and the configured bounds.
func (h *handler) resolveTarget(requested *float64) (float64, error) {
	target := h.attendance.TargetPercentage
	if requested != nil {
		target = *requested
	}
	if err := validation.ValidateTargetRange(target, h.attendance.MinTarget, h.attendance.MaxTarget); err != nil {
		return 0, err
	}
	return target, nil
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, describeValidation(err), op)
		return false
	}
	return true
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(messages, "; ")
}

func statusFor(err error) int {
	if errors.Is(err, leave.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *handler) respondPortalError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, portal.ErrInvalidCredentials):
		h.respondErrorWithOp(w, r, http.StatusUnauthorized, "invalid credentials", op)
	case errors.Is(err, context.Canceled):
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, "request cancelled", op)
	default:
		h.respondErrorWithOp(w, r, http.StatusBadGateway, err.Error(), op)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("request_id", requestID(r)),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
