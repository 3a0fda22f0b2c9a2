package edugen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edugen",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Duration of EduGen backend requests",
	}, []string{"operation"})

	apiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edugen",
		Subsystem: "api",
		Name:      "request_failures_total",
		Help:      "Number of failed EduGen backend requests",
	}, []string{"operation"})
)

const (
	opRegister = "register"
	opLogin    = "login"
	opGenerate = "generate_content"
	opSave     = "save_assignment"
	opGet      = "get_assignment"
	opList     = "list_assignments"
	opGrade    = "grade_submission"
	opAnalyze  = "analyze_assignment"
	opPing     = "ping"
)

// Config defines construction options for the REST client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:8000".
	BaseURL string
	// Timeout bounds each request. Zero disables the client-side timeout,
	// in which case a hung request is bounded only by its context.
	Timeout time.Duration
	// Sessions persists credentials at login and supplies the bearer token
	// for every call.
	Sessions SessionStore
	// HTTPClient overrides the transport when set; Timeout is ignored then.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client implements Backend against the EduGen REST API.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions SessionStore
	tracer   trace.Tracer
	logger   zerolog.Logger
}

var _ Backend = (*Client)(nil)

// NewClient builds a REST client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		sessions: cfg.Sessions,
		tracer:   otel.Tracer("github.com/edugen-ai/edugen-go/pkg/edugen"),
		logger:   logger.With().Str("component", "edugen_client").Logger(),
	}, nil
}

// Register creates an account. The response body is not consumed.
func (c *Client) Register(parent context.Context, email, password, role string) error {
	ctx, span := c.tracer.Start(parent, "edugen.register", trace.WithAttributes(
		attribute.String("role", role),
	))
	defer span.End()

	start := time.Now()
	err := c.register(ctx, email, password, role)
	apiDuration.WithLabelValues(opRegister).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opRegister).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Client) register(ctx context.Context, email, password, role string) error {
	resp, err := c.postJSON(ctx, "/register", map[string]string{
		"email":    email,
		"password": password,
		"role":     role,
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register: %s", backendMessage(body, resp.StatusCode))
	}

	return nil
}

// Login exchanges credentials for a bearer token, fetches the caller's
// profile with it and persists both through the session store. The session
// is only written once the profile fetch proves the token works.
func (c *Client) Login(parent context.Context, email, password string) (User, error) {
	ctx, span := c.tracer.Start(parent, "edugen.login")
	defer span.End()

	start := time.Now()
	user, err := c.login(ctx, email, password)
	apiDuration.WithLabelValues(opLogin).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opLogin).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return User{}, err
	}

	return user, nil
}

func (c *Client) login(ctx context.Context, email, password string) (User, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/token", strings.NewReader(form.Encode()))
	if err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return User{}, fmt.Errorf("login: %w", ErrInvalidCredentials)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return User{}, fmt.Errorf("login: %s", backendMessage(body, resp.StatusCode))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return User{}, fmt.Errorf("login: decode token: %w", err)
	}

	if token.AccessToken == "" {
		return User{}, fmt.Errorf("login: backend returned an empty access token")
	}

	user, err := c.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return User{}, err
	}

	if err := c.sessions.Save(token.AccessToken, user); err != nil {
		return User{}, fmt.Errorf("login: persist session: %w", err)
	}

	return user, nil
}

func (c *Client) fetchProfile(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me", nil)
	if err != nil {
		return User{}, fmt.Errorf("profile: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return User{}, fmt.Errorf("profile: %s", backendMessage(body, resp.StatusCode))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, fmt.Errorf("profile: decode: %w", err)
	}

	return user, nil
}

// GenerateContent asks the backend to draft questions for a topic. Any
// transport, decoding or contract failure degrades to an empty slice;
// callers cannot distinguish "no questions" from "request failed" here.
func (c *Client) GenerateContent(parent context.Context, topic, assignmentType, difficulty string) []Question {
	ctx, span := c.tracer.Start(parent, "edugen.generate_content", trace.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("type", assignmentType),
		attribute.String("difficulty", difficulty),
	))
	defer span.End()

	start := time.Now()
	questions, err := c.generateContent(ctx, topic, assignmentType, difficulty)
	apiDuration.WithLabelValues(opGenerate).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opGenerate).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn().Err(err).Str("topic", topic).Msg("content generation degraded to empty result")
		return nil
	}

	return questions
}

func (c *Client) generateContent(ctx context.Context, topic, assignmentType, difficulty string) ([]Question, error) {
	resp, err := c.postJSON(ctx, "/assignments/generate", map[string]string{
		"topic":      topic,
		"type":       assignmentType,
		"difficulty": difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generate content: %s", backendMessage(body, resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generate content: read body: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("generate content: parse: %w", err)
	}

	if err := validateQuestionList(decoded); err != nil {
		return nil, fmt.Errorf("generate content: response shape: %w", err)
	}

	var questions []Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("generate content: decode: %w", err)
	}

	return questions, nil
}

// SaveAssignment persists an assignment to the backend.
func (c *Client) SaveAssignment(parent context.Context, assignment Assignment) error {
	ctx, span := c.tracer.Start(parent, "edugen.save_assignment", trace.WithAttributes(
		attribute.String("assignment_id", assignment.ID),
	))
	defer span.End()

	start := time.Now()
	err := c.saveAssignment(ctx, assignment)
	apiDuration.WithLabelValues(opSave).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opSave).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Client) saveAssignment(ctx context.Context, assignment Assignment) error {
	resp, err := c.postJSON(ctx, "/assignments", assignment)
	if err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("save assignment: %s", backendMessage(body, resp.StatusCode))
	}

	return nil
}

// GetAssignment fetches one assignment by identifier. An unrecognised
// identifier fails with ErrAssignmentNotFound.
func (c *Client) GetAssignment(parent context.Context, id string) (Assignment, error) {
	ctx, span := c.tracer.Start(parent, "edugen.get_assignment", trace.WithAttributes(
		attribute.String("assignment_id", id),
	))
	defer span.End()

	start := time.Now()
	assignment, err := c.getAssignment(ctx, id)
	apiDuration.WithLabelValues(opGet).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opGet).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Assignment{}, err
	}

	return assignment, nil
}

func (c *Client) getAssignment(ctx context.Context, id string) (Assignment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/assignments/"+url.PathEscape(id), nil)
	if err != nil {
		return Assignment{}, fmt.Errorf("get assignment: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Assignment{}, fmt.Errorf("assignment %q: %w", id, ErrAssignmentNotFound)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return Assignment{}, fmt.Errorf("get assignment: %s", backendMessage(body, resp.StatusCode))
	}

	var assignment Assignment
	if err := json.NewDecoder(resp.Body).Decode(&assignment); err != nil {
		return Assignment{}, fmt.Errorf("get assignment: decode: %w", err)
	}

	return assignment, nil
}

// ListAssignments fetches every stored assignment, newest first.
func (c *Client) ListAssignments(parent context.Context) ([]Assignment, error) {
	ctx, span := c.tracer.Start(parent, "edugen.list_assignments")
	defer span.End()

	start := time.Now()
	assignments, err := c.listAssignments(ctx)
	apiDuration.WithLabelValues(opList).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opList).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return assignments, nil
}

func (c *Client) listAssignments(ctx context.Context) ([]Assignment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/assignments", nil)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list assignments: %s", backendMessage(body, resp.StatusCode))
	}

	var assignments []Assignment
	if err := json.NewDecoder(resp.Body).Decode(&assignments); err != nil {
		return nil, fmt.Errorf("list assignments: decode: %w", err)
	}

	return assignments, nil
}

// GradeSubmission sends a flattened answer text for grading. Any failure
// degrades to a zero-score Feedback carrying FallbackGradeMessage so the
// caller always has something to render.
func (c *Client) GradeSubmission(parent context.Context, assignmentID string, studentID int, answerText string) Feedback {
	ctx, span := c.tracer.Start(parent, "edugen.grade_submission", trace.WithAttributes(
		attribute.String("assignment_id", assignmentID),
	))
	defer span.End()

	start := time.Now()
	feedback, err := c.gradeSubmission(ctx, assignmentID, studentID, answerText)
	apiDuration.WithLabelValues(opGrade).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opGrade).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn().Err(err).Str("assignment_id", assignmentID).Msg("grading degraded to fallback feedback")
		return Feedback{Score: 0, Feedback: FallbackGradeMessage}
	}

	return feedback
}

func (c *Client) gradeSubmission(ctx context.Context, assignmentID string, studentID int, answerText string) (Feedback, error) {
	payload := struct {
		AssignmentID string `json:"assignment_id"`
		StudentID    int    `json:"student_id"`
		AnswerText   string `json:"answer_text"`
	}{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		AnswerText:   answerText,
	}

	resp, err := c.postJSON(ctx, "/student/grade", payload)
	if err != nil {
		return Feedback{}, fmt.Errorf("grade submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return Feedback{}, fmt.Errorf("grade submission: %s", backendMessage(body, resp.StatusCode))
	}

	var feedback Feedback
	if err := json.NewDecoder(resp.Body).Decode(&feedback); err != nil {
		return Feedback{}, fmt.Errorf("grade submission: decode: %w", err)
	}

	return feedback, nil
}

// AnalyzeAssignment requests a pedagogical audit of an assignment. Any
// failure degrades to FallbackAuditMessage.
func (c *Client) AnalyzeAssignment(parent context.Context, assignmentID string) string {
	ctx, span := c.tracer.Start(parent, "edugen.analyze_assignment", trace.WithAttributes(
		attribute.String("assignment_id", assignmentID),
	))
	defer span.End()

	start := time.Now()
	text, err := c.analyzeAssignment(ctx, assignmentID)
	apiDuration.WithLabelValues(opAnalyze).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opAnalyze).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn().Err(err).Str("assignment_id", assignmentID).Msg("audit degraded to fallback message")
		return FallbackAuditMessage
	}

	return text
}

func (c *Client) analyzeAssignment(ctx context.Context, assignmentID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/assignments/"+url.PathEscape(assignmentID)+"/analyze", nil)
	if err != nil {
		return "", fmt.Errorf("analyze assignment: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze assignment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("analyze assignment: %s", backendMessage(body, resp.StatusCode))
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("analyze assignment: decode: %w", err)
	}

	return payload.Text, nil
}

// Ping reports whether the backend answers its health endpoint.
func (c *Client) Ping(parent context.Context) error {
	ctx, span := c.tracer.Start(parent, "edugen.ping")
	defer span.End()

	start := time.Now()
	err := c.ping(ctx)
	apiDuration.WithLabelValues(opPing).Observe(time.Since(start).Seconds())
	if err != nil {
		apiFailures.WithLabelValues(opPing).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Client) ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: backend returned status %d", resp.StatusCode)
	}

	return nil
}

// newRequest builds a request against the backend and attaches the session
// bearer token when one is present. Public endpoints ignore the header.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if token := c.sessions.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.http.Do(req)
}

// backendMessage extracts the backend's {"detail": "..."} error envelope,
// falling back to the HTTP status text.
func backendMessage(body []byte, status int) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}

	return http.StatusText(status)
}
