package devserver

import (
	"fmt"
	"math"
	"strings"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

// ContentEngine produces deterministic stand-in content for the AI service.
// The shapes match what the production generator returns; the text is canned
// so tests and local demos behave the same on every run.
type ContentEngine struct{}

// Generate drafts a fixed set of three questions for a topic.
func (ContentEngine) Generate(topic, assignmentType, difficulty string) []edugen.Question {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "the assigned topic"
	}

	switch assignmentType {
	case edugen.TypeMultipleChoice:
		return []edugen.Question{
			{
				ID:   "q1",
				Text: fmt.Sprintf("Which of the following best describes %s?", topic),
				Options: []string{
					fmt.Sprintf("The defining characteristics of %s", topic),
					fmt.Sprintf("A concept unrelated to %s", topic),
					"A historical footnote",
					"None of the above",
				},
				CorrectAnswer: fmt.Sprintf("The defining characteristics of %s", topic),
			},
			{
				ID:   "q2",
				Text: fmt.Sprintf("Which example is most closely associated with %s?", topic),
				Options: []string{
					"The canonical textbook example",
					"A deliberate counterexample",
					"An unrelated case study",
					"A trick option",
				},
				CorrectAnswer: "The canonical textbook example",
			},
			{
				ID:   "q3",
				Text: fmt.Sprintf("At the %s level, which claim about %s holds true?", difficulty, topic),
				Options: []string{
					"The claim supported by the course material",
					"A claim that overstates the evidence",
					"A claim that contradicts the definition",
					"A claim about a different topic",
				},
				CorrectAnswer: "The claim supported by the course material",
			},
		}
	case edugen.TypeProjectBased:
		return []edugen.Question{
			{
				ID:     "q1",
				Text:   fmt.Sprintf("Design a small project that demonstrates %s and outline its milestones.", topic),
				Rubric: "Assesses scope, feasibility, and a clear milestone plan.",
			},
			{
				ID:     "q2",
				Text:   fmt.Sprintf("List the resources and tools your %s project requires and justify each choice.", topic),
				Rubric: "Looks for realistic resourcing with a short justification per item.",
			},
			{
				ID:     "q3",
				Text:   "Describe how you would evaluate whether your project succeeded.",
				Rubric: fmt.Sprintf("Expects measurable success criteria appropriate for a %s assignment.", difficulty),
			},
		}
	default:
		return []edugen.Question{
			{
				ID:     "q1",
				Text:   fmt.Sprintf("Explain the core ideas of %s in your own words.", topic),
				Rubric: fmt.Sprintf("Looks for a clear definition, one concrete example, and correct use of %s terminology.", topic),
			},
			{
				ID:     "q2",
				Text:   fmt.Sprintf("Describe a real-world situation where %s applies and justify your choice.", topic),
				Rubric: "Looks for a relevant scenario, an explicit link to the topic, and sound reasoning.",
			},
			{
				ID:     "q3",
				Text:   fmt.Sprintf("Compare %s with a related concept and discuss one limitation.", topic),
				Rubric: fmt.Sprintf("Expects a %s-level comparison with at least one strength and one limitation.", difficulty),
			},
		}
	}
}

// Grade scores a flattened answer text. Each answered question earns an
// equal share of 100; empty slots earn nothing.
func (ContentEngine) Grade(answerText string) edugen.Feedback {
	blocks := strings.Split(answerText, "\n\n")

	var total, answered int
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		total++

		answer := block
		if _, rest, found := strings.Cut(block, ":"); found {
			answer = rest
		}
		if strings.TrimSpace(answer) != "" {
			answered++
		}
	}

	if total == 0 {
		return edugen.Feedback{Score: 0, Feedback: "No answers were provided."}
	}

	score := math.Round(float64(answered) / float64(total) * 100)
	switch {
	case answered == total:
		return edugen.Feedback{
			Score:    score,
			Feedback: fmt.Sprintf("You answered all %d questions. Compare your reasoning against the rubric before the next attempt.", total),
		}
	case answered == 0:
		return edugen.Feedback{Score: 0, Feedback: "No answers were provided."}
	default:
		return edugen.Feedback{
			Score:    score,
			Feedback: fmt.Sprintf("You answered %d of %d questions. Complete the remaining ones for full credit.", answered, total),
		}
	}
}

// Audit writes a two-sentence quality summary with one suggestion, the same
// shape the production auditor produces.
func (ContentEngine) Audit(assignment edugen.Assignment) string {
	count := assignment.QuestionCount()
	if count == 0 {
		return "The assignment has no questions yet, so there is nothing to review. Generate content before requesting an audit."
	}

	return fmt.Sprintf(
		"The %d %s questions are phrased clearly and hold a consistent %s difficulty. Consider adding one open-ended prompt that asks students to justify their reasoning.",
		count, assignment.Type, assignment.Difficulty,
	)
}
