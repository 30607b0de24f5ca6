package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_SecondAcquireTimesOutWhileHeld(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(projectPath, []byte(`{}`), 0o644))

	held, err := Acquire(context.Background(), projectPath, time.Second)
	require.NoError(t, err)
	defer held.Unlock()

	_, err = Acquire(context.Background(), projectPath, 100*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked by another writer")
}

func TestAcquire_SucceedsAfterPriorHolderUnlocks(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(projectPath, []byte(`{}`), 0o644))

	first, err := Acquire(context.Background(), projectPath, time.Second)
	require.NoError(t, err)
	require.NoError(t, first.Unlock())

	second, err := Acquire(context.Background(), projectPath, time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Unlock())
}

func TestUnlock_NilReceiverIsNoop(t *testing.T) {
	var l *FileLock
	assert.NoError(t, l.Unlock())
}
