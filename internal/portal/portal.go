// Package portal holds the controllers behind the EduGen portal shell: one
// for students working through an assignment, one for the educator's
// assignment list and one for authoring new assignments. Controllers own
// their state exclusively and only share data through the session store.
package portal

import (
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Notifier surfaces blocking, user-facing messages raised by controllers.
// Every propagated failure and every blocked action goes through here.
type Notifier interface {
	Alert(message string)
}

// Confirmer asks the user to approve a destructive action before it runs.
type Confirmer interface {
	Confirm(prompt string) bool
}

var (
	// ErrNotAuthenticated is returned when an action needs a signed-in
	// user and none is present.
	ErrNotAuthenticated = errors.New("not signed in")

	// ErrNoAssignment is returned when an action needs a loaded
	// assignment and none is present.
	ErrNoAssignment = errors.New("no assignment loaded")

	// ErrUnknownQuestion is returned when an answer targets a question
	// identifier outside the loaded assignment.
	ErrUnknownQuestion = errors.New("unknown question identifier")

	// ErrEmptyPreview is returned when saving before any questions have
	// been generated.
	ErrEmptyPreview = errors.New("no generated questions to save")
)

// newSanitizer builds the policy applied to AI-authored text before it is
// kept for display. The portal renders plain text, so everything but the
// text itself is stripped.
func newSanitizer() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

func sanitizeText(policy *bluemonday.Policy, text string) string {
	return strings.TrimSpace(policy.Sanitize(text))
}
