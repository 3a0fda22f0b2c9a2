package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

// UserRecord is a stored account.
type UserRecord struct {
	ID             int    `gorm:"primaryKey" json:"id"`
	Email          string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	HashedPassword string `gorm:"size:255;not null" json:"-"`
	Role           string `gorm:"size:32;not null" json:"role"`
}

// AssignmentRecord is a stored assignment. The question set is kept as a
// JSON blob so the generated content round-trips without a schema change
// whenever the AI service adds fields.
type AssignmentRecord struct {
	ID         string         `gorm:"primaryKey;size:64" json:"id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Subject    string         `gorm:"size:255" json:"subject"`
	Topic      string         `gorm:"size:255" json:"topic"`
	Type       string         `gorm:"size:32;not null" json:"type"`
	Difficulty string         `gorm:"size:32;not null" json:"difficulty"`
	Status     string         `gorm:"size:32;not null" json:"status"`
	DueDate    string         `gorm:"size:64" json:"due_date"`
	Questions  datatypes.JSON `gorm:"type:json" json:"questions"`
	CreatedAt  time.Time      `json:"created_at"`
}

// SubmissionRecord is a graded answer set received from the student portal.
type SubmissionRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID string    `gorm:"size:64;index;not null" json:"assignment_id"`
	StudentID    int       `gorm:"index;not null" json:"student_id"`
	AnswerText   string    `gorm:"type:text" json:"answer_text"`
	Score        float64   `json:"score"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
}

func assignmentRecordFrom(assignment edugen.Assignment) (AssignmentRecord, error) {
	questions, err := json.Marshal(assignment.Questions)
	if err != nil {
		return AssignmentRecord{}, fmt.Errorf("encode questions: %w", err)
	}

	return AssignmentRecord{
		ID:         assignment.ID,
		Title:      assignment.Title,
		Subject:    assignment.Subject,
		Topic:      assignment.Topic,
		Type:       assignment.Type,
		Difficulty: assignment.Difficulty,
		Status:     assignment.Status,
		DueDate:    assignment.DueDate,
		Questions:  questions,
	}, nil
}

// Assignment converts the stored row back into the wire shape.
func (r AssignmentRecord) Assignment() (edugen.Assignment, error) {
	var questions []edugen.Question
	if len(r.Questions) > 0 {
		if err := json.Unmarshal(r.Questions, &questions); err != nil {
			return edugen.Assignment{}, fmt.Errorf("decode questions for assignment %q: %w", r.ID, err)
		}
	}

	assignment := edugen.Assignment{
		ID:         r.ID,
		Title:      r.Title,
		Subject:    r.Subject,
		Topic:      r.Topic,
		Type:       r.Type,
		Difficulty: r.Difficulty,
		Status:     r.Status,
		DueDate:    r.DueDate,
		Questions:  questions,
	}
	if !r.CreatedAt.IsZero() {
		created := r.CreatedAt
		assignment.CreatedAt = &created
	}

	return assignment, nil
}

// Store defines persistence operations for the development backend.
type Store interface {
	CreateUser(ctx context.Context, user *UserRecord) error
	UserByEmail(ctx context.Context, email string) (UserRecord, error)
	CreateAssignment(ctx context.Context, assignment *AssignmentRecord) error
	AssignmentByID(ctx context.Context, id string) (AssignmentRecord, error)
	ListAssignments(ctx context.Context) ([]AssignmentRecord, error)
	CreateSubmission(ctx context.Context, submission *SubmissionRecord) error
	SubmissionsForAssignment(ctx context.Context, assignmentID string) ([]SubmissionRecord, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore instantiates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Migrate creates the backing tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserRecord{}, &AssignmentRecord{}, &SubmissionRecord{})
}

func (s *gormStore) CreateUser(ctx context.Context, user *UserRecord) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormStore) UserByEmail(ctx context.Context, email string) (UserRecord, error) {
	var user UserRecord
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return UserRecord{}, err
	}

	return user, nil
}

func (s *gormStore) CreateAssignment(ctx context.Context, assignment *AssignmentRecord) error {
	return s.db.WithContext(ctx).Create(assignment).Error
}

func (s *gormStore) AssignmentByID(ctx context.Context, id string) (AssignmentRecord, error) {
	var assignment AssignmentRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return AssignmentRecord{}, err
	}

	return assignment, nil
}

func (s *gormStore) ListAssignments(ctx context.Context) ([]AssignmentRecord, error) {
	var assignments []AssignmentRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (s *gormStore) CreateSubmission(ctx context.Context, submission *SubmissionRecord) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *gormStore) SubmissionsForAssignment(ctx context.Context, assignmentID string) ([]SubmissionRecord, error) {
	var submissions []SubmissionRecord
	if err := s.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
