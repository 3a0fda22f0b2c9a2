package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/edugen-ai/edugen-go/internal/session"
	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

// SubmissionState names the phases of the student flow.
type SubmissionState int

const (
	// StateIdle awaits an assignment identifier.
	StateIdle SubmissionState = iota
	// StateLoaded holds an assignment and collects answers.
	StateLoaded
	// StateGraded holds the feedback for a submitted assignment.
	StateGraded
)

// String returns the state name used in logs and prompts.
func (s SubmissionState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateGraded:
		return "graded"
	default:
		return "idle"
	}
}

// SessionReader is the slice of the session store the submission flow
// needs: who is signed in right now.
type SessionReader interface {
	Current() (session.Session, bool)
}

// SubmissionController drives the student flow: load an assignment by
// identifier, collect one answer per question, submit the lot for grading
// and hold the feedback until reset. It is the only controller with a real
// multi-state lifecycle.
//
// Methods are safe for concurrent use. Responses from superseded requests
// are discarded via a monotonic sequence number, so rapid repeated loads or
// submits settle on the most recently initiated one rather than whichever
// response arrives last.
type SubmissionController struct {
	backend   edugen.Backend
	sessions  SessionReader
	notifier  Notifier
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger

	mu         sync.Mutex
	state      SubmissionState
	assignment edugen.Assignment
	answers    map[string]string
	feedback   edugen.Feedback
	loading    bool
	loadSeq    uint64
	submitSeq  uint64
}

// NewSubmissionController builds the student submission controller.
func NewSubmissionController(backend edugen.Backend, sessions SessionReader, notifier Notifier, logger zerolog.Logger) *SubmissionController {
	return &SubmissionController{
		backend:   backend,
		sessions:  sessions,
		notifier:  notifier,
		sanitizer: newSanitizer(),
		logger:    logger.With().Str("component", "submission_controller").Logger(),
	}
}

// Load fetches the assignment and seeds the answer map with one empty
// entry per question. A failed or empty lookup leaves the controller in
// its current state with a user-facing alert. Loading a different
// assignment while one is already loaded replaces everything; answers are
// never merged across loads.
func (c *SubmissionController) Load(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		c.notifier.Alert("Enter an assignment ID.")
		return fmt.Errorf("assignment identifier is required")
	}

	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.loading = true
	c.mu.Unlock()

	assignment, err := c.backend.GetAssignment(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq == c.loadSeq {
		c.loading = false
	}

	if err != nil {
		if errors.Is(err, edugen.ErrAssignmentNotFound) {
			c.notifier.Alert(fmt.Sprintf("Assignment %q was not found.", id))
		} else {
			c.notifier.Alert("Could not load the assignment. Please try again.")
		}

		return err
	}

	if seq != c.loadSeq {
		c.logger.Debug().Str("assignment_id", id).Msg("stale load response discarded")
		return nil
	}

	assignment = c.sanitizeAssignment(assignment)

	answers := make(map[string]string, len(assignment.Questions))
	for _, question := range assignment.Questions {
		answers[question.ID] = ""
	}

	c.assignment = assignment
	c.answers = answers
	c.feedback = edugen.Feedback{}
	c.state = StateLoaded

	c.logger.Info().Str("assignment_id", assignment.ID).Int("questions", len(assignment.Questions)).Msg("assignment loaded")

	return nil
}

// Answer records the student's answer for one question. Keys are fixed at
// load time; answering an unknown question is rejected. The text itself is
// not validated, empty answers included.
func (c *SubmissionController) Answer(questionID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLoaded {
		return ErrNoAssignment
	}

	if _, ok := c.answers[questionID]; !ok {
		return fmt.Errorf("question %q: %w", questionID, ErrUnknownQuestion)
	}

	c.answers[questionID] = text

	return nil
}

// Submit flattens the answer map into a single text block and sends it for
// grading as the signed-in user. Without a session the submission is
// blocked with an alert and no network call is made. Grading cannot fail
// from the caller's point of view: transport failures surface as the
// client's fallback feedback, and the controller still moves to Graded so
// there is always something to show.
func (c *SubmissionController) Submit(ctx context.Context) error {
	c.mu.Lock()

	if c.state != StateLoaded {
		c.mu.Unlock()
		c.notifier.Alert("Load an assignment before submitting.")
		return ErrNoAssignment
	}

	current, ok := c.sessions.Current()
	if !ok {
		c.mu.Unlock()
		c.notifier.Alert("Please log in before submitting your answers.")
		return ErrNotAuthenticated
	}

	assignmentID := c.assignment.ID
	answerText := FlattenAnswers(c.assignment.Questions, c.answers)
	c.submitSeq++
	seq := c.submitSeq
	c.loading = true
	c.mu.Unlock()

	feedback := c.backend.GradeSubmission(ctx, assignmentID, current.User.ID, answerText)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.submitSeq {
		c.logger.Debug().Str("assignment_id", assignmentID).Msg("stale grading response discarded")
		return nil
	}

	feedback.Feedback = sanitizeText(c.sanitizer, feedback.Feedback)

	c.feedback = feedback
	c.state = StateGraded
	c.loading = false

	c.logger.Info().Str("assignment_id", assignmentID).Float64("score", feedback.Score).Msg("submission graded")

	return nil
}

// Reset returns to Idle and discards the assignment, answers and feedback.
// Nothing about the submission survives locally; the backend call already
// made is the only record.
func (c *SubmissionController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateIdle
	c.assignment = edugen.Assignment{}
	c.answers = nil
	c.feedback = edugen.Feedback{}
	c.loading = false
}

// State returns the current phase of the flow.
func (c *SubmissionController) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Assignment returns the loaded assignment, zero-valued in Idle.
func (c *SubmissionController) Assignment() edugen.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.assignment
}

// Answers returns a copy of the answer map.
func (c *SubmissionController) Answers() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	answers := make(map[string]string, len(c.answers))
	for id, text := range c.answers {
		answers[id] = text
	}

	return answers
}

// Feedback returns the grading verdict, zero-valued before Graded.
func (c *SubmissionController) Feedback() edugen.Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.feedback
}

// Loading reports whether a load or submit is in flight.
func (c *SubmissionController) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loading
}

func (c *SubmissionController) sanitizeAssignment(assignment edugen.Assignment) edugen.Assignment {
	assignment.Title = sanitizeText(c.sanitizer, assignment.Title)

	for i := range assignment.Questions {
		question := &assignment.Questions[i]
		question.Text = sanitizeText(c.sanitizer, question.Text)
		question.Rubric = sanitizeText(c.sanitizer, question.Rubric)
		for j := range question.Options {
			question.Options[j] = sanitizeText(c.sanitizer, question.Options[j])
		}
	}

	return assignment
}

// FlattenAnswers folds per-question answers into the single text block the
// grading endpoint accepts: one entry per question in assignment order,
// 1-indexed, separated by blank lines. The grading contract takes a single
// string, so per-question feedback is impossible downstream; the flattening
// is deliberate.
func FlattenAnswers(questions []edugen.Question, answers map[string]string) string {
	entries := make([]string, 0, len(questions))
	for i, question := range questions {
		entries = append(entries, fmt.Sprintf("Q%d: %s", i+1, answers[question.ID]))
	}

	return strings.Join(entries, "\n\n")
}
