package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edugen-ai/edugen-go/pkg/edugen"
)

func TestStoreSaveAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edugen", "session.json")

	store := NewStore(path, zerolog.Nop())

	_, ok := store.Current()
	require.False(t, ok)
	require.Empty(t, store.Token())

	user := edugen.User{ID: 7, Email: "student@example.com", Role: edugen.RoleStudent}
	require.NoError(t, store.Save("token-abc", user))

	sess, ok := store.Current()
	require.True(t, ok)
	require.Equal(t, "token-abc", sess.AccessToken)
	require.Equal(t, user, sess.User)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A fresh store against the same path picks the session back up.
	restored := NewStore(path, zerolog.Nop())
	require.Equal(t, "token-abc", restored.Token())

	sess, ok = restored.Current()
	require.True(t, ok)
	require.Equal(t, "student@example.com", sess.User.Email)
}

func TestStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewStore(path, zerolog.Nop())
	require.NoError(t, store.Save("token-abc", edugen.User{Email: "a@b.c"}))
	require.NoError(t, store.Clear())

	_, ok := store.Current()
	require.False(t, ok)
	require.Empty(t, store.Token())

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	// Clearing an already-clear store is a no-op.
	require.NoError(t, store.Clear())
}

func TestStoreIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewStore(path, zerolog.Nop())

	_, ok := store.Current()
	require.False(t, ok)
	require.Empty(t, store.Token())
}
