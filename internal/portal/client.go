// Package portal is a client for the service that scrapes the institutional
// portal. It posts student credentials and decodes the JSON the service
// returns; it does not talk to the portal itself.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nimora/nimora/internal/config"
	"github.com/nimora/nimora/internal/payload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidCredentials is matched by 401 responses.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyResponse is returned when the service answers with no body.
	ErrEmptyResponse = errors.New("empty response received from server")
)

// APIError is a non-2xx response from the portal service.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("portal service returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("portal service returned HTTP %d: %s", e.Status, e.Detail)
}

// Is lets 401 responses match ErrInvalidCredentials.
func (e *APIError) Is(target error) bool {
	return target == ErrInvalidCredentials && e.Status == http.StatusUnauthorized
}

// Client calls the portal service.
type Client struct {
	logger     *zap.Logger
	baseURL    *url.URL
	httpClient *http.Client
	codec      *payload.Codec
}

// NewClient builds a client from backend configuration.
func NewClient(logger *zap.Logger, cfg config.BackendConfig) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("backend url cannot be empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", cfg.URL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", cfg.URL)
	}

	client := &Client{
		logger:     logger,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
	if cfg.EncodePayload {
		client.codec = payload.NewCodec(cfg.PayloadSalt)
	}
	return client, nil
}

// Login authenticates and returns the service's attendance summary.
func (c *Client) Login(ctx context.Context, creds Credentials) ([]LeaveSummary, error) {
	var out []LeaveSummary
	err := c.post(ctx, "/login", creds, &out)
	return out, err
}

// Attendance returns per-course attendance counts.
func (c *Client) Attendance(ctx context.Context, creds Credentials) ([]AttendanceEntry, error) {
	var out []AttendanceEntry
	err := c.post(ctx, "/attendance", creds, &out)
	return out, err
}

// CGPA returns the semester-wise GPA table.
func (c *Client) CGPA(ctx context.Context, creds Credentials) ([]SemesterRecord, error) {
	var out []SemesterRecord
	err := c.post(ctx, "/cgpa", creds, &out)
	return out, err
}

// ExamSchedule returns upcoming exams.
func (c *Client) ExamSchedule(ctx context.Context, creds Credentials) (ExamSchedule, error) {
	var out ExamSchedule
	err := c.post(ctx, "/exam-schedule", creds, &out)
	return out, err
}

// Internals returns raw internal-mark rows, unwrapped from the response
// envelope.
func (c *Client) Internals(ctx context.Context, creds Credentials) ([]InternalRecord, error) {
	var out InternalsResponse
	if err := c.post(ctx, "/internals", creds, &out); err != nil {
		return nil, err
	}
	return out.Internals, nil
}

// PredictCourses returns current courses and the prior CGPA standing.
func (c *Client) PredictCourses(ctx context.Context, creds Credentials) (CoursePrediction, error) {
	var out CoursePrediction
	err := c.post(ctx, "/predict-courses", creds, &out)
	return out, err
}

// AutoFeedback asks the service to fill in feedback forms in the background.
// Index 0 selects end-semester feedback, anything else intermediate feedback.
func (c *Client) AutoFeedback(ctx context.Context, creds Credentials, index int) (FeedbackStatus, error) {
	body := struct {
		Credentials
		FeedbackIndex int `json:"feedback_index"`
	}{Credentials: creds, FeedbackIndex: index}

	var out FeedbackStatus
	err := c.post(ctx, "/auto-feedback", body, &out)
	return out, err
}

// Overview fetches attendance, CGPA and exams concurrently. The first failure
// cancels the remaining requests.
func (c *Client) Overview(ctx context.Context, creds Credentials) (Overview, error) {
	var overview Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		attendance, err := c.Attendance(gctx, creds)
		overview.Attendance = attendance
		return err
	})
	g.Go(func() error {
		semesters, err := c.CGPA(gctx, creds)
		overview.Semesters = semesters
		return err
	})
	g.Go(func() error {
		exams, err := c.ExamSchedule(gctx, creds)
		overview.Exams = exams
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	op := "portal.post"
	start := time.Now()

	var requestBody any = body
	if c.codec != nil {
		envelope, err := c.codec.Wrap(body)
		if err != nil {
			return err
		}
		requestBody = envelope
	}
	encoded, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body",
				zap.String("op", op),
				zap.String("path", path),
				zap.Error(closeErr),
			)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	c.logger.Debug("portal request completed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(data)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid JSON response from %s: %w", path, err)
	}
	return nil
}

// errorDetail extracts FastAPI-style {"detail": ...} messages, falling back
// to the raw body.
func errorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(string(data))
}
