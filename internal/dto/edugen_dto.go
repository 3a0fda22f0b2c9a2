package dto

// RegisterRequest describes the payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=student educator"`
}

// TokenRequest carries the form-encoded login credentials.
type TokenRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// TokenResponse is the bearer token handed out after a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse is the serialized account representation.
type UserResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GenerateRequest describes the payload for drafting assignment questions.
type GenerateRequest struct {
	Topic      string `json:"topic" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=multiple-choice written-response project-based"`
	Difficulty string `json:"difficulty" validate:"required,oneof=elementary intermediate advanced"`
}

// GradeRequest describes a flattened submission sent for grading.
type GradeRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	StudentID    int    `json:"student_id" validate:"required"`
	AnswerText   string `json:"answer_text"`
}

// AnalysisResponse carries the audit summary for an assignment.
type AnalysisResponse struct {
	Text string `json:"text"`
}
