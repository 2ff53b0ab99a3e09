package audit_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyguard-ai/polyguard/pkg/audit"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newStore(t *testing.T) (*audit.FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := audit.NewFileStore(dir, newTestLogger())
	require.NoError(t, err)
	return store, dir
}

func TestAppendAndReadAll_PreservesOrder(t *testing.T) {
	store, _ := newStore(t)
	day := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	for i, text := range []string{"first", "second", "third"} {
		entry := audit.Entry{
			Timestamp: day.Add(time.Duration(i) * time.Minute),
			InputText: text,
			Verdict:   types.Verdict{RunID: text, Summary: types.Summary{Passed: true}},
		}
		require.NoError(t, store.Append("alice", entry))
	}

	entries, err := store.ReadAll("alice", day)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].InputText)
	assert.Equal(t, "third", entries[2].InputText)
	assert.Equal(t, "alice", entries[1].Identity)
}

func TestReadAll_MissingFileIsEmpty(t *testing.T) {
	store, _ := newStore(t)

	entries, err := store.ReadAll("nobody", time.Now())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadAll_CorruptFileIsEmpty(t *testing.T) {
	store, dir := newStore(t)
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	path := filepath.Join(dir, "bob_2026-08-28.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	entries, err := store.ReadAll("bob", day)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppend_SeparateDaysSeparateFiles(t *testing.T) {
	store, dir := newStore(t)

	dayOne := time.Date(2026, 8, 27, 23, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2026, 8, 28, 1, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append("carol", audit.Entry{Timestamp: dayOne, InputText: "a"}))
	require.NoError(t, store.Append("carol", audit.Entry{Timestamp: dayTwo, InputText: "b"}))

	assert.FileExists(t, filepath.Join(dir, "carol_2026-08-27.json"))
	assert.FileExists(t, filepath.Join(dir, "carol_2026-08-28.json"))

	entries, err := store.ReadAll("carol", dayOne)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].InputText)
}

func TestAppend_CorruptFileRestarts(t *testing.T) {
	store, dir := newStore(t)
	day := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	path := filepath.Join(dir, "dave_2026-08-28.json")
	require.NoError(t, os.WriteFile(path, []byte("][["), 0o600))

	require.NoError(t, store.Append("dave", audit.Entry{Timestamp: day, InputText: "fresh"}))

	entries, err := store.ReadAll("dave", day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].InputText)
}
