package portal

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

func threeQuestionAssignment() edugen.Assignment {
	return edugen.Assignment{
		ID:      "a-1",
		Title:   "Photosynthesis Basics",
		Subject: "Biology",
		Type:    edugen.TypeMultipleChoice,
		Status:  edugen.StatusPublished,
		Questions: []edugen.Question{
			{ID: "q1", Text: "What do plants absorb?"},
			{ID: "q2", Text: "Where does photosynthesis happen?"},
			{ID: "q3", Text: "What gas is released?"},
		},
	}
}

func newSubmissionFixture(sessions SessionReader) (*SubmissionController, *fakeBackend, *recordingNotifier) {
	backend := newFakeBackend()
	notifier := &recordingNotifier{}
	controller := NewSubmissionController(backend, sessions, notifier, zerolog.Nop())
	return controller, backend, notifier
}

func TestSubmissionLoadSeedsAnswerMap(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = threeQuestionAssignment()

	require.NoError(t, controller.Load(context.Background(), "a-1"))
	require.Equal(t, StateLoaded, controller.State())

	answers := controller.Answers()
	require.Len(t, answers, 3)
	for _, id := range []string{"q1", "q2", "q3"} {
		text, ok := answers[id]
		require.True(t, ok)
		require.Empty(t, text)
	}
}

func TestSubmissionLoadZeroQuestions(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["empty"] = edugen.Assignment{ID: "empty", Title: "Placeholder"}

	require.NoError(t, controller.Load(context.Background(), "empty"))
	require.Equal(t, StateLoaded, controller.State())
	require.Empty(t, controller.Answers())
}

func TestSubmissionLoadEmptyIdentifier(t *testing.T) {
	controller, backend, notifier := newSubmissionFixture(signedIn(7, "s@example.com"))

	require.Error(t, controller.Load(context.Background(), "   "))
	require.Equal(t, StateIdle, controller.State())
	require.Equal(t, 1, notifier.count())
	require.Zero(t, backend.getCalls)
}

func TestSubmissionLoadFailureStaysIdle(t *testing.T) {
	controller, _, notifier := newSubmissionFixture(signedIn(7, "s@example.com"))

	err := controller.Load(context.Background(), "missing")
	require.ErrorIs(t, err, edugen.ErrAssignmentNotFound)
	require.Equal(t, StateIdle, controller.State())
	require.Contains(t, notifier.last(), "missing")
}

func TestSubmissionReloadReplacesAnswers(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = threeQuestionAssignment()
	backend.assignments["a-2"] = edugen.Assignment{
		ID:        "a-2",
		Title:     "Algebra",
		Questions: []edugen.Question{{ID: "x1", Text: "Solve for x."}},
	}

	require.NoError(t, controller.Load(context.Background(), "a-1"))
	require.NoError(t, controller.Answer("q1", "sunlight"))

	require.NoError(t, controller.Load(context.Background(), "a-2"))

	answers := controller.Answers()
	require.Len(t, answers, 1)
	require.Empty(t, answers["x1"])
	_, carried := answers["q1"]
	require.False(t, carried)
}

func TestSubmissionAnswerUnknownQuestion(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = threeQuestionAssignment()

	require.NoError(t, controller.Load(context.Background(), "a-1"))

	err := controller.Answer("q9", "answer")
	require.ErrorIs(t, err, ErrUnknownQuestion)
	require.Len(t, controller.Answers(), 3)
}

func TestSubmissionAnswerBeforeLoad(t *testing.T) {
	controller, _, _ := newSubmissionFixture(signedIn(7, "s@example.com"))

	require.ErrorIs(t, controller.Answer("q1", "answer"), ErrNoAssignment)
}

func TestSubmissionSubmitRequiresSession(t *testing.T) {
	controller, backend, notifier := newSubmissionFixture(&fakeSessions{})
	backend.assignments["a-1"] = threeQuestionAssignment()

	require.NoError(t, controller.Load(context.Background(), "a-1"))

	answersBefore := controller.Answers()

	err := controller.Submit(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Zero(t, backend.gradeCalls)
	require.Equal(t, StateLoaded, controller.State())
	require.Equal(t, answersBefore, controller.Answers())
	require.Equal(t, 1, notifier.count())
}

func TestSubmissionSubmitFlattensAnswers(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = edugen.Assignment{
		ID: "a-1",
		Questions: []edugen.Question{
			{ID: "q1", Text: "First?"},
			{ID: "q2", Text: "Second?"},
		},
	}
	backend.feedback = edugen.Feedback{Score: 85, Feedback: "Good recall."}

	require.NoError(t, controller.Load(context.Background(), "a-1"))
	require.NoError(t, controller.Answer("q1", "A"))
	require.NoError(t, controller.Answer("q2", "B"))
	require.NoError(t, controller.Submit(context.Background()))

	require.Equal(t, 1, backend.gradeCalls)
	require.Equal(t, "a-1", backend.lastGrade.assignmentID)
	require.Equal(t, 7, backend.lastGrade.studentID)
	require.Equal(t, "Q1: A\n\nQ2: B", backend.lastGrade.answerText)

	require.Equal(t, StateGraded, controller.State())
	require.Equal(t, 85.0, controller.Feedback().Score)
}

func TestSubmissionGradeFallbackStillReachesGraded(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = threeQuestionAssignment()
	backend.feedback = edugen.Feedback{Score: 0, Feedback: edugen.FallbackGradeMessage}

	require.NoError(t, controller.Load(context.Background(), "a-1"))
	require.NoError(t, controller.Submit(context.Background()))

	require.Equal(t, StateGraded, controller.State())
	require.Zero(t, controller.Feedback().Score)
	require.Equal(t, edugen.FallbackGradeMessage, controller.Feedback().Feedback)
}

func TestSubmissionResetDiscardsEverything(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = threeQuestionAssignment()

	require.NoError(t, controller.Load(context.Background(), "a-1"))
	require.NoError(t, controller.Answer("q1", "sunlight"))
	require.NoError(t, controller.Submit(context.Background()))

	controller.Reset()

	require.Equal(t, StateIdle, controller.State())
	require.Empty(t, controller.Answers())
	require.Zero(t, controller.Feedback().Score)
	require.Empty(t, controller.Assignment().ID)
}

func TestSubmissionLoadSanitisesQuestionText(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = edugen.Assignment{
		ID:        "a-1",
		Title:     "<b>Bold Title</b>",
		Questions: []edugen.Question{{ID: "q1", Text: "<em>What</em> happened?", Options: []string{"<i>This</i>", "That"}}},
	}

	require.NoError(t, controller.Load(context.Background(), "a-1"))

	loaded := controller.Assignment()
	require.Equal(t, "Bold Title", loaded.Title)
	require.Equal(t, "What happened?", loaded.Questions[0].Text)
	require.Equal(t, "This", loaded.Questions[0].Options[0])
}

func TestSubmissionConcurrentSubmitsLatestWins(t *testing.T) {
	controller, backend, _ := newSubmissionFixture(signedIn(7, "s@example.com"))
	backend.assignments["a-1"] = threeQuestionAssignment()

	require.NoError(t, controller.Load(context.Background(), "a-1"))

	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	backend.gradeFunc = func(gradeCall) edugen.Feedback {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			// The first submission parks until the second one has fully
			// resolved, forcing an out-of-order arrival.
			<-release
			return edugen.Feedback{Score: 10, Feedback: "stale"}
		}
		return edugen.Feedback{Score: 95, Feedback: "fresh"}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = controller.Submit(context.Background())
	}()

	// Wait until the first submission is parked inside the backend.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, testWait, testTick)

	require.NoError(t, controller.Submit(context.Background()))
	require.Equal(t, 95.0, controller.Feedback().Score)

	close(release)
	wg.Wait()

	// The superseded response must not overwrite the newer feedback.
	require.Equal(t, 95.0, controller.Feedback().Score)
	require.Equal(t, "fresh", controller.Feedback().Feedback)
	require.Equal(t, StateGraded, controller.State())
}

func TestFlattenAnswers(t *testing.T) {
	questions := []edugen.Question{{ID: "q1"}, {ID: "q2"}}
	answers := map[string]string{"q1": "A", "q2": "B"}

	require.Equal(t, "Q1: A\n\nQ2: B", FlattenAnswers(questions, answers))
	require.Empty(t, FlattenAnswers(nil, nil))

	// Unanswered questions still occupy their slot.
	require.Equal(t, "Q1: \n\nQ2: B", FlattenAnswers(questions, map[string]string{"q2": "B"}))
}
