package portal

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

// GenerationConfig is the educator's authoring input. Title and Subject
// are display dressing; Topic, Type and Difficulty drive the generation
// request. An empty Title falls back to the topic at save time.
type GenerationConfig struct {
	Title      string
	Subject    string
	Topic      string `validate:"required"`
	Type       string `validate:"required,oneof=multiple-choice written-response project-based"`
	Difficulty string `validate:"required,oneof=elementary intermediate advanced"`
	DueDate    string
}

// CreatorController drives the authoring flow: configure a topic, request
// generated questions, inspect the preview and save the result as a new
// assignment. The flow is linear rather than a state machine; each step
// simply overwrites the previous one's output.
type CreatorController struct {
	backend   edugen.Backend
	validator *validator.Validate
	notifier  Notifier
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	newID     func() string

	mu          sync.Mutex
	config      GenerationConfig
	preview     []edugen.Question
	generating  bool
	generateSeq uint64
	lastSavedID string
}

// NewCreatorController builds the assignment creator controller.
func NewCreatorController(backend edugen.Backend, validate *validator.Validate, notifier Notifier, logger zerolog.Logger) *CreatorController {
	return &CreatorController{
		backend:   backend,
		validator: validate,
		notifier:  notifier,
		sanitizer: newSanitizer(),
		logger:    logger.With().Str("component", "creator_controller").Logger(),
		newID:     uuid.NewString,
	}
}

// Configure validates and stores the authoring input for the next
// generation request.
func (c *CreatorController) Configure(cfg GenerationConfig) error {
	if err := c.validator.Struct(cfg); err != nil {
		return fmt.Errorf("invalid generation config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.config = cfg

	return nil
}

// Config returns the current authoring input.
func (c *CreatorController) Config() GenerationConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.config
}

// Generate requests questions for the current configuration and replaces
// the preview wholesale; there is no undo. A failed generation leaves an
// empty preview with no error raised to the user, indistinguishable from
// the backend genuinely producing nothing. When generations overlap, the
// most recently initiated one wins regardless of arrival order.
func (c *CreatorController) Generate(ctx context.Context) {
	c.mu.Lock()
	cfg := c.config
	c.generateSeq++
	seq := c.generateSeq
	c.generating = true
	c.mu.Unlock()

	questions := c.backend.GenerateContent(ctx, cfg.Topic, cfg.Type, cfg.Difficulty)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.generateSeq {
		c.logger.Debug().Str("topic", cfg.Topic).Msg("stale generation response discarded")
		return
	}

	for i := range questions {
		questions[i].Text = sanitizeText(c.sanitizer, questions[i].Text)
		questions[i].Rubric = sanitizeText(c.sanitizer, questions[i].Rubric)
		for j := range questions[i].Options {
			questions[i].Options[j] = sanitizeText(c.sanitizer, questions[i].Options[j])
		}
	}

	c.preview = questions
	c.generating = false

	if len(questions) == 0 {
		c.logger.Warn().Str("topic", cfg.Topic).Msg("generation produced an empty preview")
		return
	}

	c.logger.Info().Str("topic", cfg.Topic).Int("questions", len(questions)).Msg("preview generated")
}

// Preview returns a copy of the generated questions awaiting save.
func (c *CreatorController) Preview() []edugen.Question {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]edugen.Question(nil), c.preview...)
}

// Generating reports whether a generation request is in flight.
func (c *CreatorController) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generating
}

// Save builds an assignment from the configuration and preview, stamps it
// with a fresh identifier and submits it. On success the identifier is
// returned so the educator can hand it to students. An empty preview
// blocks the save before any network call.
func (c *CreatorController) Save(ctx context.Context) (string, error) {
	c.mu.Lock()

	if len(c.preview) == 0 {
		c.mu.Unlock()
		c.notifier.Alert("Generate questions before saving.")
		return "", ErrEmptyPreview
	}

	cfg := c.config
	questions := append([]edugen.Question(nil), c.preview...)
	c.mu.Unlock()

	title := cfg.Title
	if title == "" {
		title = cfg.Topic
	}

	assignment := edugen.Assignment{
		ID:         c.newID(),
		Title:      title,
		Subject:    cfg.Subject,
		Topic:      cfg.Topic,
		Type:       cfg.Type,
		Difficulty: cfg.Difficulty,
		Status:     edugen.StatusDraft,
		DueDate:    cfg.DueDate,
		Questions:  questions,
	}

	if err := c.backend.SaveAssignment(ctx, assignment); err != nil {
		c.notifier.Alert(fmt.Sprintf("Could not save the assignment: %v", err))
		return "", err
	}

	c.mu.Lock()
	c.lastSavedID = assignment.ID
	c.mu.Unlock()

	c.logger.Info().Str("assignment_id", assignment.ID).Msg("assignment saved")

	return assignment.ID, nil
}

// LastSavedID returns the identifier of the most recently saved
// assignment, or "" when nothing has been saved yet.
func (c *CreatorController) LastSavedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastSavedID
}
