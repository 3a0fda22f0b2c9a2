package edugen

import "errors"

var (
	// ErrAssignmentNotFound is returned by GetAssignment when the backend
	// does not recognise the identifier.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Placeholder values substituted when a display-feeding call fails. They
// are part of the client contract: callers render them instead of an error
// state.
const (
	// FallbackGradeMessage is the Feedback text paired with a zero score
	// when grading cannot be completed.
	FallbackGradeMessage = "We could not grade this submission right now. Please try again later."

	// FallbackAuditMessage is returned by AnalyzeAssignment when the
	// analysis service cannot be reached.
	FallbackAuditMessage = "Audit unavailable: the analysis service could not be reached."
)
