package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/pkg/logger"
)

func TestWorkspace_EnsureAndPathNamespaceByJobID(t *testing.T) {
	tmp := t.TempDir()
	ws := newWorkspace(tmp, "job-123")

	require.NoError(t, ws.ensure())
	assert.Equal(t, filepath.Join(tmp, "export_job-123"), ws.dir)
	assert.Equal(t, filepath.Join(tmp, "export_job-123", "segment_000.mp4"), ws.path("segment_000.mp4"))

	info, err := os.Stat(ws.dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWorkspace_RemoveAllDeletesDirectory(t *testing.T) {
	tmp := t.TempDir()
	ws := newWorkspace(tmp, "job-xyz")
	require.NoError(t, ws.ensure())

	ws.removeAll()

	_, err := os.Stat(ws.dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupList_RunRemovesEveryRegisteredPath(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.txt")
	b := filepath.Join(tmp, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	cl := &cleanupList{}
	cl.register(a)
	cl.register(b)
	cl.run(logger.New("error"))

	_, errA := os.Stat(a)
	_, errB := os.Stat(b)
	assert.True(t, os.IsNotExist(errA))
	assert.True(t, os.IsNotExist(errB))
}

func TestCleanupList_RunToleratesAlreadyMissingPath(t *testing.T) {
	cl := &cleanupList{}
	cl.register(filepath.Join(t.TempDir(), "never-existed.txt"))

	assert.NotPanics(t, func() { cl.run(logger.New("error")) })
}
