package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/edugen-ai/edugen-go/internal/portal"
	"github.com/edugen-ai/edugen-go/internal/session"
	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

// shell is the interactive command loop of the portal. One instance serves
// one terminal session; all reads and writes go through the streams handed
// to run, so tests can drive it with scripted input.
type shell struct {
	backend  edugen.Backend
	sessions session.Store
	logger   zerolog.Logger

	in  *bufio.Scanner
	out io.Writer

	creator *portal.CreatorController
	list    *portal.ListController
	sub     *portal.SubmissionController
}

func newShell(backend edugen.Backend, sessions session.Store, logger zerolog.Logger) *shell {
	return &shell{
		backend:  backend,
		sessions: sessions,
		logger:   logger.With().Str("component", "shell").Logger(),
	}
}

// consoleNotifier prints controller alerts inline with the prompt output.
type consoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func (n *consoleNotifier) Alert(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	fmt.Fprintf(n.out, "! %s\n", message)
}

// promptConfirmer asks on the shell's own streams and treats anything but
// an explicit yes as a decline.
type promptConfirmer struct {
	shell *shell
}

func (p *promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.shell.out, "%s [y/N] ", prompt)

	line, ok := p.shell.readLine()
	if !ok {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// run wires the controllers to the given streams and loops over commands
// until quit or end of input.
func (s *shell) run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.in = bufio.NewScanner(in)
	s.out = out

	notifier := &consoleNotifier{out: out}
	confirmer := &promptConfirmer{shell: s}
	validate := validator.New(validator.WithRequiredStructEnabled())

	s.creator = portal.NewCreatorController(s.backend, validate, notifier, s.logger)
	s.list = portal.NewListController(s.backend, notifier, confirmer, s.logger)
	s.sub = portal.NewSubmissionController(s.backend, s.sessions, notifier, s.logger)

	s.greet(ctx)

	for {
		fmt.Fprint(s.out, "edugen> ")

		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "quit" || fields[0] == "exit" {
			fmt.Fprintln(s.out, "Bye.")
			return nil
		}

		s.dispatch(ctx, fields)
	}
}

func (s *shell) greet(ctx context.Context) {
	fmt.Fprintln(s.out, "EduGen AI portal. Type \"help\" for commands.")

	if err := s.backend.Ping(ctx); err != nil {
		fmt.Fprintln(s.out, "! The backend is not reachable. Commands will fail until it is up.")
		s.logger.Warn().Err(err).Msg("backend unreachable at startup")
	}

	if sess, ok := s.sessions.Current(); ok {
		fmt.Fprintf(s.out, "Signed in as %s (%s).\n", sess.User.Email, sess.User.Role)
	}
}

func (s *shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}

	return s.in.Text(), true
}

// promptField prints a label and reads one trimmed line.
func (s *shell) promptField(label string) (string, bool) {
	fmt.Fprintf(s.out, "%s: ", label)

	line, ok := s.readLine()
	if !ok {
		return "", false
	}

	return strings.TrimSpace(line), true
}

func (s *shell) dispatch(ctx context.Context, fields []string) {
	switch fields[0] {
	case "help":
		s.printHelp()
	case "ping":
		s.cmdPing(ctx)
	case "register":
		s.cmdRegister(ctx, fields)
	case "login":
		s.cmdLogin(ctx, fields)
	case "logout":
		s.cmdLogout()
	case "whoami":
		s.cmdWhoami()
	case "load":
		s.cmdLoad(ctx, fields)
	case "answer":
		s.cmdAnswer(fields)
	case "answers":
		s.cmdAnswers()
	case "submit":
		s.cmdSubmit(ctx)
	case "feedback":
		s.cmdFeedback()
	case "reset":
		s.sub.Reset()
		fmt.Fprintln(s.out, "Submission flow reset.")
	case "list":
		s.cmdList(ctx)
	case "find":
		s.cmdFind(fields)
	case "audit":
		s.cmdAudit(ctx, fields)
	case "delete":
		s.cmdDelete(fields)
	case "new":
		s.cmdNew()
	case "generate":
		s.cmdGenerate(ctx)
	case "preview":
		s.cmdPreview()
	case "save":
		s.cmdSave(ctx)
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type \"help\" for the command list.\n", fields[0])
	}
}

func (s *shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  ping                      check backend reachability
  register <email> <role>   create an account (role: student or educator)
  login <email>             sign in and persist the session
  logout                    sign out and clear the stored session
  whoami                    show the signed-in user

  load <id>                 load an assignment to work on
  answer <qid> <text>       record an answer for one question
  answers                   show the questions and your current answers
  submit                    submit all answers for grading
  feedback                  show the latest grading feedback
  reset                     discard the loaded assignment and answers

  list                      fetch and show all assignments
  find <text> [status]      filter the fetched list by title or subject
  audit <id>                request a pedagogical review of an assignment
  delete <id>               remove an assignment from the local list

  new                       configure a new assignment interactively
  generate                  draft questions for the configuration
  preview                   show the drafted questions
  save                      save the draft as a new assignment

  help                      show this help
  quit                      leave the portal
`)
}

func (s *shell) cmdPing(ctx context.Context) {
	if err := s.backend.Ping(ctx); err != nil {
		fmt.Fprintf(s.out, "! backend unreachable: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "Backend is up.")
}

func (s *shell) cmdRegister(ctx context.Context, fields []string) {
	if len(fields) != 3 {
		fmt.Fprintln(s.out, "Usage: register <email> <role>")
		return
	}

	password, ok := s.promptField("Password")
	if !ok {
		return
	}

	if err := s.backend.Register(ctx, fields[1], password, fields[2]); err != nil {
		fmt.Fprintf(s.out, "! registration failed: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Registered %s. Sign in with \"login %s\".\n", fields[1], fields[1])
}

func (s *shell) cmdLogin(ctx context.Context, fields []string) {
	if len(fields) != 2 {
		fmt.Fprintln(s.out, "Usage: login <email>")
		return
	}

	password, ok := s.promptField("Password")
	if !ok {
		return
	}

	user, err := s.backend.Login(ctx, fields[1], password)
	if err != nil {
		fmt.Fprintf(s.out, "! login failed: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Signed in as %s (%s).\n", user.Email, user.Role)
}

func (s *shell) cmdLogout() {
	if err := s.sessions.Clear(); err != nil {
		fmt.Fprintf(s.out, "! could not clear the session: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "Signed out.")
}

func (s *shell) cmdWhoami() {
	sess, ok := s.sessions.Current()
	if !ok {
		fmt.Fprintln(s.out, "Not signed in.")
		return
	}

	fmt.Fprintf(s.out, "%s (%s)\n", sess.User.Email, sess.User.Role)
}

func (s *shell) cmdLoad(ctx context.Context, fields []string) {
	if len(fields) != 2 {
		fmt.Fprintln(s.out, "Usage: load <id>")
		return
	}

	if err := s.sub.Load(ctx, fields[1]); err != nil {
		// The controller already alerted through the notifier.
		return
	}

	assignment := s.sub.Assignment()
	fmt.Fprintf(s.out, "Loaded %q (%s, %s, %d questions).\n",
		assignment.Title, assignment.Type, assignment.Difficulty, len(assignment.Questions))
	s.printQuestions(assignment.Questions)
	fmt.Fprintln(s.out, "Answer with \"answer <qid> <text>\", then \"submit\".")
}

func (s *shell) cmdAnswer(fields []string) {
	if len(fields) < 3 {
		fmt.Fprintln(s.out, "Usage: answer <qid> <text>")
		return
	}

	if err := s.sub.Answer(fields[1], strings.Join(fields[2:], " ")); err != nil {
		fmt.Fprintf(s.out, "! %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Recorded answer for %s.\n", fields[1])
}

func (s *shell) cmdAnswers() {
	if s.sub.State() == portal.StateIdle {
		fmt.Fprintln(s.out, "No assignment loaded.")
		return
	}

	assignment := s.sub.Assignment()
	answers := s.sub.Answers()

	for i, question := range assignment.Questions {
		text := answers[question.ID]
		if text == "" {
			text = "(unanswered)"
		}

		fmt.Fprintf(s.out, "%2d. [%s] %s\n      %s\n", i+1, question.ID, question.Text, text)
	}
}

func (s *shell) cmdSubmit(ctx context.Context) {
	if err := s.sub.Submit(ctx); err != nil {
		// The controller already alerted through the notifier.
		return
	}

	feedback := s.sub.Feedback()
	fmt.Fprintf(s.out, "Score: %.0f\n%s\n", feedback.Score, feedback.Feedback)
}

func (s *shell) cmdFeedback() {
	if s.sub.State() != portal.StateGraded {
		fmt.Fprintln(s.out, "Nothing graded yet.")
		return
	}

	feedback := s.sub.Feedback()
	fmt.Fprintf(s.out, "Score: %.0f\n%s\n", feedback.Score, feedback.Feedback)
}

func (s *shell) cmdList(ctx context.Context) {
	assignments, err := s.backend.ListAssignments(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "! could not fetch assignments: %v\n", err)
		return
	}

	s.list.SetAssignments(assignments)
	s.printAssignments(s.list.Assignments())
}

func (s *shell) cmdFind(fields []string) {
	if len(fields) < 2 {
		fmt.Fprintln(s.out, "Usage: find <text> [status]")
		return
	}

	status := portal.StatusFilterAll
	if len(fields) > 2 {
		status = fields[2]
	}

	s.printAssignments(s.list.Filter(fields[1], status))
}

func (s *shell) cmdAudit(ctx context.Context, fields []string) {
	if len(fields) != 2 {
		fmt.Fprintln(s.out, "Usage: audit <id>")
		return
	}

	fmt.Fprintf(s.out, "Auditing %s...\n", fields[1])

	result := <-s.list.Audit(ctx, fields[1])
	fmt.Fprintln(s.out, result.Text)
}

func (s *shell) cmdDelete(fields []string) {
	if len(fields) != 2 {
		fmt.Fprintln(s.out, "Usage: delete <id>")
		return
	}

	if s.list.Delete(fields[1]) {
		fmt.Fprintf(s.out, "Removed %s from the local list. The backend keeps its copy.\n", fields[1])
	}
}

func (s *shell) cmdNew() {
	title, ok := s.promptField("Title (optional)")
	if !ok {
		return
	}

	subject, ok := s.promptField("Subject (optional)")
	if !ok {
		return
	}

	topic, ok := s.promptField("Topic")
	if !ok {
		return
	}

	kind, ok := s.promptField("Type (multiple-choice, written-response, project-based)")
	if !ok {
		return
	}

	difficulty, ok := s.promptField("Difficulty (elementary, intermediate, advanced)")
	if !ok {
		return
	}

	dueDate, ok := s.promptField("Due date (optional)")
	if !ok {
		return
	}

	cfg := portal.GenerationConfig{
		Title:      title,
		Subject:    subject,
		Topic:      topic,
		Type:       kind,
		Difficulty: difficulty,
		DueDate:    dueDate,
	}

	if err := s.creator.Configure(cfg); err != nil {
		fmt.Fprintf(s.out, "! %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "Configuration stored. Run \"generate\" to draft questions.")
}

func (s *shell) cmdGenerate(ctx context.Context) {
	if s.creator.Config().Topic == "" {
		fmt.Fprintln(s.out, "Configure an assignment first with \"new\".")
		return
	}

	fmt.Fprintln(s.out, "Generating questions...")
	s.creator.Generate(ctx)

	preview := s.creator.Preview()
	if len(preview) == 0 {
		fmt.Fprintln(s.out, "The backend produced no questions. Try again or adjust the topic.")
		return
	}

	fmt.Fprintf(s.out, "Generated %d questions. Inspect them with \"preview\", then \"save\".\n", len(preview))
}

func (s *shell) cmdPreview() {
	preview := s.creator.Preview()
	if len(preview) == 0 {
		fmt.Fprintln(s.out, "No generated questions. Run \"generate\" first.")
		return
	}

	s.printQuestions(preview)
}

func (s *shell) cmdSave(ctx context.Context) {
	id, err := s.creator.Save(ctx)
	if err != nil {
		// The controller already alerted through the notifier.
		return
	}

	fmt.Fprintf(s.out, "Saved assignment %s. Students load it with \"load %s\".\n", id, id)
}

func (s *shell) printQuestions(questions []edugen.Question) {
	for i, question := range questions {
		fmt.Fprintf(s.out, "%2d. [%s] %s\n", i+1, question.ID, question.Text)

		for j, option := range question.Options {
			fmt.Fprintf(s.out, "      %c) %s\n", 'a'+j, option)
		}

		if question.Rubric != "" {
			fmt.Fprintf(s.out, "      rubric: %s\n", question.Rubric)
		}
	}
}

func (s *shell) printAssignments(assignments []edugen.Assignment) {
	if len(assignments) == 0 {
		fmt.Fprintln(s.out, "No assignments.")
		return
	}

	for _, assignment := range assignments {
		fmt.Fprintf(s.out, "%s  [%s] %s (%s, %d questions)\n",
			assignment.ID, assignment.Status, assignment.Title, assignment.Subject, len(assignment.Questions))
	}
}
