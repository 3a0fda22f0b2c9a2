package edugen

import (
	"context"
	"time"
)

// Assignment is an educator-authored assessment as served by the EduGen
// backend. The backend is the source of truth; the portal never derives or
// persists assignments beyond the lifetime of the view that holds them.
type Assignment struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Subject    string     `json:"subject"`
	Topic      string     `json:"topic"`
	Type       string     `json:"type"`
	Difficulty string     `json:"difficulty"`
	Status     string     `json:"status"`
	DueDate    string     `json:"due_date"`
	Questions  []Question `json:"questions"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Question is a single prompt inside an assignment. Options and
// CorrectAnswer are populated for multiple-choice content, Rubric for
// written or project work; the backend does not enforce the split and
// neither does the client.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Rubric        string   `json:"rubric,omitempty"`
}

// Feedback is the grading verdict returned for a submitted assignment.
// Score is a percentage in [0, 100]; Feedback is prose meant for direct
// display to the student.
type Feedback struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// User is the authenticated account as reported by the profile endpoint.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Assignment types understood by the generation endpoint.
const (
	TypeMultipleChoice  = "multiple-choice"
	TypeWrittenResponse = "written-response"
	TypeProjectBased    = "project-based"
)

// Difficulty levels understood by the generation endpoint.
const (
	DifficultyElementary   = "elementary"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Assignment statuses. Transitions are unconstrained: any value may be set
// directly and no server-side state machine is visible to the client.
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
	StatusArchived  = "Archived"
)

// Roles assignable at registration.
const (
	RoleStudent  = "student"
	RoleEducator = "educator"
)

// QuestionCount returns the number of questions in the assignment.
func (a Assignment) QuestionCount() int {
	return len(a.Questions)
}

// IsMultipleChoice reports whether the assignment is typed as multiple
// choice. Untyped or unknown values count as false.
func (a Assignment) IsMultipleChoice() bool {
	return a.Type == TypeMultipleChoice
}

// IsEducator reports whether the user may author assignments.
func (u User) IsEducator() bool {
	return u.Role == RoleEducator
}

// SessionStore persists the credentials issued at login and hands the
// bearer token back for authenticated calls. An empty token means signed
// out.
type SessionStore interface {
	Save(token string, user User) error
	Token() string
}

// Backend describes the EduGen REST API consumed by the portal
// controllers.
//
// The error discipline is deliberately split in two. Calls that feed a
// display (GenerateContent, GradeSubmission, AnalyzeAssignment) never
// return an error: on any transport or decoding failure they degrade to a
// safe placeholder so the caller always has something renderable. Calls
// the user explicitly initiated (Register, Login, SaveAssignment,
// GetAssignment) propagate the failure so the caller can surface it.
type Backend interface {
	// Register creates an account. The response body is not consumed.
	Register(ctx context.Context, email, password, role string) error
	// Login exchanges credentials for a bearer token, fetches the profile
	// and persists both through the session store.
	Login(ctx context.Context, email, password string) (User, error)
	// GenerateContent asks the backend to draft questions for a topic.
	// Failures degrade to an empty slice.
	GenerateContent(ctx context.Context, topic, assignmentType, difficulty string) []Question
	// SaveAssignment persists an assignment to the backend.
	SaveAssignment(ctx context.Context, assignment Assignment) error
	// GetAssignment fetches one assignment by identifier. An unknown
	// identifier fails with ErrAssignmentNotFound.
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	// ListAssignments fetches every stored assignment, newest first.
	ListAssignments(ctx context.Context) ([]Assignment, error)
	// GradeSubmission sends a flattened answer text for grading. Failures
	// degrade to a zero-score Feedback carrying FallbackGradeMessage.
	GradeSubmission(ctx context.Context, assignmentID string, studentID int, answerText string) Feedback
	// AnalyzeAssignment requests a pedagogical audit of an assignment.
	// Failures degrade to FallbackAuditMessage.
	AnalyzeAssignment(ctx context.Context, assignmentID string) string
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
