package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edugen-ai/edugen-go/internal/session"
	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

const (
	testWait = 2 * time.Second
	testTick = 5 * time.Millisecond
)

// fakeBackend is an in-memory stand-in for the REST client. It honours the
// client's error discipline: display-feeding calls always return a value.
type fakeBackend struct {
	mu sync.Mutex

	assignments map[string]edugen.Assignment
	questions   []edugen.Question
	feedback    edugen.Feedback
	analysis    string
	saveErr     error

	generateFunc func(topic, assignmentType, difficulty string) []edugen.Question
	analyzeFunc  func(id string) string
	gradeFunc    func(call gradeCall) edugen.Feedback

	registerCalls int
	loginCalls    int
	generateCalls int
	saveCalls     int
	getCalls      int
	listCalls     int
	gradeCalls    int
	analyzeCalls  int

	saved     []edugen.Assignment
	lastGrade gradeCall
}

type gradeCall struct {
	assignmentID string
	studentID    int
	answerText   string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		assignments: make(map[string]edugen.Assignment),
		feedback:    edugen.Feedback{Score: 90, Feedback: "Well done."},
		analysis:    "Questions are clear.",
	}
}

func (f *fakeBackend) Register(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	return nil
}

func (f *fakeBackend) Login(context.Context, string, string) (edugen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return edugen.User{}, nil
}

func (f *fakeBackend) GenerateContent(_ context.Context, topic, assignmentType, difficulty string) []edugen.Question {
	f.mu.Lock()
	f.generateCalls++
	hook := f.generateFunc
	questions := f.questions
	f.mu.Unlock()

	if hook != nil {
		return hook(topic, assignmentType, difficulty)
	}
	return questions
}

func (f *fakeBackend) SaveAssignment(_ context.Context, assignment edugen.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, assignment)
	return nil
}

func (f *fakeBackend) GetAssignment(_ context.Context, id string) (edugen.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	assignment, ok := f.assignments[id]
	if !ok {
		return edugen.Assignment{}, fmt.Errorf("assignment %q: %w", id, edugen.ErrAssignmentNotFound)
	}
	return assignment, nil
}

func (f *fakeBackend) ListAssignments(context.Context) ([]edugen.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	listed := make([]edugen.Assignment, 0, len(f.saved))
	listed = append(listed, f.saved...)
	return listed, nil
}

func (f *fakeBackend) GradeSubmission(_ context.Context, assignmentID string, studentID int, answerText string) edugen.Feedback {
	call := gradeCall{assignmentID: assignmentID, studentID: studentID, answerText: answerText}

	f.mu.Lock()
	f.gradeCalls++
	f.lastGrade = call
	hook := f.gradeFunc
	feedback := f.feedback
	f.mu.Unlock()

	if hook != nil {
		return hook(call)
	}
	return feedback
}

func (f *fakeBackend) AnalyzeAssignment(_ context.Context, id string) string {
	f.mu.Lock()
	f.analyzeCalls++
	hook := f.analyzeFunc
	analysis := f.analysis
	f.mu.Unlock()

	if hook != nil {
		return hook(id)
	}
	return analysis
}

func (f *fakeBackend) Ping(context.Context) error { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *recordingNotifier) Alert(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.alerts) == 0 {
		return ""
	}
	return n.alerts[len(n.alerts)-1]
}

type stubConfirmer struct {
	answer  bool
	prompts []string
}

func (c *stubConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

type fakeSessions struct {
	session session.Session
	active  bool
}

func (f *fakeSessions) Current() (session.Session, bool) {
	return f.session, f.active
}

func signedIn(id int, email string) *fakeSessions {
	return &fakeSessions{
		session: session.Session{
			AccessToken: "token-123",
			User:        edugen.User{ID: id, Email: email, Role: edugen.RoleStudent},
		},
		active: true,
	}
}
