package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/pkg/logger"
)

func TestCleaner_Sweep_DeletesOnlyExpiredFiles(t *testing.T) {
	outputDir := t.TempDir()

	oldPath := filepath.Join(outputDir, "old.mp4")
	freshPath := filepath.Join(outputDir, "fresh.mp4")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(freshPath, []byte("x"), 0o644))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, old, old))

	cfg := &config.Config{
		Storage: config.StorageConfig{
			OutputDir:     outputDir,
			RetentionDays: 1,
		},
	}

	New(cfg, logger.New("error")).Sweep()

	_, err := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(freshPath)
	assert.NoError(t, err)
}

func TestCleaner_Sweep_SkipsMissingDirectory(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			OutputDir:     filepath.Join(t.TempDir(), "does-not-exist"),
			RetentionDays: 1,
		},
	}

	assert.NotPanics(t, func() {
		New(cfg, logger.New("error")).Sweep()
	})
}
