package portal

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

func sampleAssignments() []edugen.Assignment {
	return []edugen.Assignment{
		{ID: "a-1", Title: "Photosynthesis Basics", Subject: "Biology", Status: edugen.StatusPublished},
		{ID: "a-2", Title: "Algebra Drills", Subject: "Mathematics", Status: edugen.StatusDraft},
		{ID: "a-3", Title: "Cell Division", Subject: "Biology", Status: edugen.StatusDraft},
		{ID: "a-4", Title: "World War II Essay", Subject: "History", Status: edugen.StatusArchived},
	}
}

func newListFixture(answer bool) (*ListController, *fakeBackend, *recordingNotifier, *stubConfirmer) {
	backend := newFakeBackend()
	notifier := &recordingNotifier{}
	confirmer := &stubConfirmer{answer: answer}
	controller := NewListController(backend, notifier, confirmer, zerolog.Nop())
	controller.SetAssignments(sampleAssignments())
	return controller, backend, notifier, confirmer
}

func TestListFilterNoFiltersReturnsAll(t *testing.T) {
	controller, _, _, _ := newListFixture(true)

	require.Equal(t, controller.Assignments(), controller.Filter("", StatusFilterAll))
}

func TestListFilterByStatus(t *testing.T) {
	controller, _, _, _ := newListFixture(true)

	drafts := controller.Filter("", edugen.StatusDraft)
	require.Len(t, drafts, 2)
	for _, assignment := range drafts {
		require.Equal(t, edugen.StatusDraft, assignment.Status)
	}
}

func TestListFilterByTextMatchesTitleOrSubject(t *testing.T) {
	controller, _, _, _ := newListFixture(true)

	byTitle := controller.Filter("photo", StatusFilterAll)
	require.Len(t, byTitle, 1)
	require.Equal(t, "a-1", byTitle[0].ID)

	bySubject := controller.Filter("BIOLOGY", StatusFilterAll)
	require.Len(t, bySubject, 2)
}

func TestListFilterIntersectsTextAndStatus(t *testing.T) {
	controller, _, _, _ := newListFixture(true)

	// "Cell Division" is a Draft: it survives the text filter only while
	// the status filter is Draft or All.
	require.Len(t, controller.Filter("cell", edugen.StatusDraft), 1)
	require.Len(t, controller.Filter("cell", StatusFilterAll), 1)
	require.Empty(t, controller.Filter("cell", edugen.StatusPublished))
}

func TestListAuditStoresResultByIdentifier(t *testing.T) {
	controller, backend, _, _ := newListFixture(true)
	backend.analysis = "Clear and well scoped."

	require.Empty(t, controller.Auditing())
	_, ok := controller.LastAudit()
	require.False(t, ok)

	result := <-controller.Audit(context.Background(), "a-1")
	require.Equal(t, "a-1", result.AssignmentID)
	require.Equal(t, "Clear and well scoped.", result.Text)

	stored, ok := controller.LastAudit()
	require.True(t, ok)
	require.Equal(t, result, stored)
	require.Empty(t, controller.Auditing())
}

func TestListOverlappingAuditsLastCompletedWins(t *testing.T) {
	controller, backend, _, _ := newListFixture(true)

	releaseA := make(chan struct{})
	backend.analyzeFunc = func(id string) string {
		if id == "a-1" {
			<-releaseA
			return "audit of a-1"
		}
		return "audit of a-2"
	}

	doneA := controller.Audit(context.Background(), "a-1")
	doneB := controller.Audit(context.Background(), "a-2")

	// The marker follows the most recently started audit.
	require.Equal(t, "a-2", controller.Auditing())

	resultB := <-doneB
	require.Equal(t, "a-2", resultB.AssignmentID)

	stored, ok := controller.LastAudit()
	require.True(t, ok)
	require.Equal(t, "a-2", stored.AssignmentID)
	require.Empty(t, controller.Auditing())

	// The first audit was never cancelled; once it completes it takes the
	// display cell, and the already-cleared marker stays untouched.
	close(releaseA)
	resultA := <-doneA
	require.Equal(t, "a-1", resultA.AssignmentID)

	stored, ok = controller.LastAudit()
	require.True(t, ok)
	require.Equal(t, "a-1", stored.AssignmentID)
	require.Equal(t, "audit of a-1", stored.Text)
	require.Empty(t, controller.Auditing())
}

func TestListAuditMarkerSurvivesOlderCompletion(t *testing.T) {
	controller, backend, _, _ := newListFixture(true)

	releaseB := make(chan struct{})
	backend.analyzeFunc = func(id string) string {
		if id == "a-2" {
			<-releaseB
		}
		return "audit of " + id
	}

	doneA := controller.Audit(context.Background(), "a-1")
	doneB := controller.Audit(context.Background(), "a-2")

	// a-1 completes while a-2 is still in flight: the marker belongs to
	// a-2 and must not be cleared by a-1's completion.
	<-doneA
	require.Equal(t, "a-2", controller.Auditing())

	close(releaseB)
	<-doneB
	require.Empty(t, controller.Auditing())
}

func TestListDeleteRequiresConfirmation(t *testing.T) {
	controller, _, _, confirmer := newListFixture(false)

	require.False(t, controller.Delete("a-1"))
	require.Len(t, confirmer.prompts, 1)
	require.Len(t, controller.Assignments(), 4)
}

func TestListDeleteRemovesLocallyOnly(t *testing.T) {
	controller, backend, _, _ := newListFixture(true)

	require.True(t, controller.Delete("a-2"))

	remaining := controller.Assignments()
	require.Len(t, remaining, 3)
	for _, assignment := range remaining {
		require.NotEqual(t, "a-2", assignment.ID)
	}

	// Removal never touches the backend.
	require.Zero(t, backend.saveCalls)
	require.Zero(t, backend.getCalls)
}

func TestListDeleteUnknownIdentifierAlerts(t *testing.T) {
	controller, _, notifier, _ := newListFixture(true)

	require.False(t, controller.Delete("ghost"))
	require.Equal(t, 1, notifier.count())
	require.Len(t, controller.Assignments(), 4)
}

func TestListSetAssignmentsSanitisesTitles(t *testing.T) {
	backend := newFakeBackend()
	controller := NewListController(backend, &recordingNotifier{}, &stubConfirmer{}, zerolog.Nop())

	controller.SetAssignments([]edugen.Assignment{
		{ID: "a-1", Title: "<b>Bold</b> Plans", Subject: "<i>Biology</i>"},
	})

	assignments := controller.Assignments()
	require.Equal(t, "Bold Plans", assignments[0].Title)
	require.Equal(t, "Biology", assignments[0].Subject)
}
