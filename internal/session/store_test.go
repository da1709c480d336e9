package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewDirStore(DirConfig{BaseDir: t.TempDir(), SessionID: "abc123"})
	require.NoError(t, err)

	_, ok := store.Get("pending")
	assert.False(t, ok)

	require.NoError(t, store.Set("pending", `[{"type":"error"}]`))
	got, ok := store.Get("pending")
	require.True(t, ok)
	assert.Equal(t, `[{"type":"error"}]`, got)

	require.NoError(t, store.Delete("pending"))
	_, ok = store.Get("pending")
	assert.False(t, ok)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete("pending"))
}

func TestDirStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	first, err := NewDirStore(DirConfig{BaseDir: base, SessionID: "s1"})
	require.NoError(t, err)
	require.NoError(t, first.Set("pending", "payload"))

	// A new store for the same session sees the prior write.
	second, err := NewDirStore(DirConfig{BaseDir: base, SessionID: "s1"})
	require.NoError(t, err)
	got, ok := second.Get("pending")
	require.True(t, ok)
	assert.Equal(t, "payload", got)

	// A different session does not.
	other, err := NewDirStore(DirConfig{BaseDir: base, SessionID: "s2"})
	require.NoError(t, err)
	_, ok = other.Get("pending")
	assert.False(t, ok)
}

func TestDirStoreConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := NewDirStore(DirConfig{SessionID: "x"})
	assert.ErrorContains(t, err, "base directory is required")

	_, err = NewDirStore(DirConfig{BaseDir: t.TempDir()})
	assert.ErrorContains(t, err, "session id is required")
}

func TestDirStoreRejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	store, err := NewDirStore(DirConfig{BaseDir: t.TempDir(), SessionID: "x"})
	require.NoError(t, err)

	err = store.Set(filepath.Join("..", "outside"), "v")
	assert.ErrorContains(t, err, "invalid session key")

	err = store.Set("", "v")
	assert.ErrorContains(t, err, "key is required")
}

func TestMemStore(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	require.NoError(t, store.Set("k", "v"))
	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete("k"))
	_, ok = store.Get("k")
	assert.False(t, ok)
}

func TestDefaultSessionIDStable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultSessionID(), DefaultSessionID())
	assert.Len(t, DefaultSessionID(), 8)
}
