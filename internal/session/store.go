package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

// Session is the persisted authentication state: the bearer token issued at
// login and the profile fetched immediately after. Both live and die
// together; there is no partial session.
type Session struct {
	AccessToken string      `json:"access_token"`
	User        edugen.User `json:"user"`
}

// Store keeps the current session in memory and mirrors it to disk so a
// restarted portal resumes where it left off.
type Store interface {
	// Save replaces the session and persists it.
	Save(token string, user edugen.User) error
	// Current returns the active session, if any.
	Current() (Session, bool)
	// Token returns the active bearer token, or "" when signed out.
	Token() string
	// Clear drops the session from memory and disk.
	Clear() error
}

type fileStore struct {
	path   string
	logger zerolog.Logger

	mu      sync.Mutex
	active  bool
	session Session
}

// NewStore builds a file-backed session store rooted at path and restores
// any session persisted by a previous run. An unreadable or corrupt file is
// treated as signed out, not as an error.
func NewStore(path string, logger zerolog.Logger) Store {
	store := &fileStore{
		path:   path,
		logger: logger.With().Str("component", "session_store").Logger(),
	}

	store.restore()

	return store
}

func (s *fileStore) restore() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("session file unreadable, starting signed out")
		}

		return
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("session file corrupt, starting signed out")
		return
	}

	if sess.AccessToken == "" {
		return
	}

	s.session = sess
	s.active = true
	s.logger.Debug().Str("email", sess.User.Email).Msg("session restored")
}

func (s *fileStore) Save(token string, user edugen.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := Session{AccessToken: token, User: user}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	s.session = sess
	s.active = true

	return nil
}

func (s *fileStore) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session, s.active
}

func (s *fileStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ""
	}

	return s.session.AccessToken
}

func (s *fileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{}
	s.active = false

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}

	return nil
}
