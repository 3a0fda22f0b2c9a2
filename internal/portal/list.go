package portal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

// StatusFilterAll disables status filtering.
const StatusFilterAll = "All"

// AuditResult pairs an audit text with the assignment it reviewed.
type AuditResult struct {
	AssignmentID string
	Text         string
}

// ListController holds the educator's in-memory assignment collection and
// derives a filtered view from it on demand. It also runs per-item audits
// and local deletions.
type ListController struct {
	backend   edugen.Backend
	notifier  Notifier
	confirmer Confirmer
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger

	mu          sync.Mutex
	assignments []edugen.Assignment
	auditing    string
	result      AuditResult
}

// NewListController builds the assignment list controller.
func NewListController(backend edugen.Backend, notifier Notifier, confirmer Confirmer, logger zerolog.Logger) *ListController {
	return &ListController{
		backend:   backend,
		notifier:  notifier,
		confirmer: confirmer,
		sanitizer: newSanitizer(),
		logger:    logger.With().Str("component", "list_controller").Logger(),
	}
}

// SetAssignments replaces the whole collection.
func (c *ListController) SetAssignments(assignments []edugen.Assignment) {
	cleaned := make([]edugen.Assignment, len(assignments))
	for i, assignment := range assignments {
		assignment.Title = sanitizeText(c.sanitizer, assignment.Title)
		assignment.Subject = sanitizeText(c.sanitizer, assignment.Subject)
		cleaned[i] = assignment
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.assignments = cleaned
}

// Assignments returns a copy of the full collection.
func (c *ListController) Assignments() []edugen.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]edugen.Assignment(nil), c.assignments...)
}

// Filter returns the assignments matching both predicates: a
// case-insensitive substring match on title or subject, and an exact
// status match unless the status filter is "All". The view is recomputed
// on every call; nothing is indexed or memoised at this scale.
func (c *ListController) Filter(search, status string) []edugen.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()

	matches := make([]edugen.Assignment, 0, len(c.assignments))
	for _, assignment := range c.assignments {
		if matchesFilter(assignment, search, status) {
			matches = append(matches, assignment)
		}
	}

	return matches
}

func matchesFilter(assignment edugen.Assignment, search, status string) bool {
	if status != StatusFilterAll && assignment.Status != status {
		return false
	}

	if search == "" {
		return true
	}

	needle := strings.ToLower(search)

	return strings.Contains(strings.ToLower(assignment.Title), needle) ||
		strings.Contains(strings.ToLower(assignment.Subject), needle)
}

// Audit starts a pedagogical review of one assignment and returns a
// channel that delivers that audit's own result. There is a single result
// cell system-wide: overlapping audits complete independently, nothing is
// cancelled, and the most recently completed one wins the display. The
// in-flight marker follows the most recently started audit and is cleared
// only by that audit's own completion.
func (c *ListController) Audit(ctx context.Context, id string) <-chan AuditResult {
	c.mu.Lock()
	c.auditing = id
	c.mu.Unlock()

	done := make(chan AuditResult, 1)

	go func() {
		defer close(done)

		text := sanitizeText(c.sanitizer, c.backend.AnalyzeAssignment(ctx, id))
		result := AuditResult{AssignmentID: id, Text: text}

		c.mu.Lock()
		c.result = result
		if c.auditing == id {
			c.auditing = ""
		}
		c.mu.Unlock()

		c.logger.Info().Str("assignment_id", id).Msg("audit completed")

		done <- result
	}()

	return done
}

// Auditing returns the identifier of the most recently started audit still
// in flight, or "" when none is.
func (c *ListController) Auditing() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.auditing
}

// LastAudit returns the most recently completed audit result.
func (c *ListController) LastAudit() (AuditResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result.AssignmentID == "" {
		return AuditResult{}, false
	}

	return c.result, true
}

// Delete removes one assignment from the local collection after an
// explicit confirmation. No backend call is made: the platform keeps its
// copy and the item returns on the next seed. Declining the confirmation
// leaves the collection untouched.
func (c *ListController) Delete(id string) bool {
	if !c.confirmer.Confirm(fmt.Sprintf("Delete assignment %q from the list?", id)) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, assignment := range c.assignments {
		if assignment.ID == id {
			c.assignments = append(c.assignments[:i], c.assignments[i+1:]...)
			c.logger.Info().Str("assignment_id", id).Msg("assignment removed locally")
			return true
		}
	}

	c.notifier.Alert(fmt.Sprintf("Assignment %q is not in the list.", id))

	return false
}
