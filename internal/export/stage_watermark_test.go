package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFile_RenamesWithinSameDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "dst.mp4")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, moveFile(src, dst))

	assert.FileExists(t, dst)
	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestMoveFile_MissingSourceErrors(t *testing.T) {
	dir := t.TempDir()
	err := moveFile(filepath.Join(dir, "missing.mp4"), filepath.Join(dir, "dst.mp4"))
	assert.Error(t, err)
}

func TestRunWatermark_NoProviderMovesFileToOutputPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "final.mp4")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))
	outPath := filepath.Join(dir, "output.mp4")

	p := &Pipeline{watermark: nil}
	st := &runState{
		bgmPath: src,
		opts:    Options{OutputPath: outPath, UserTier: "free"},
		cl:      &cleanupList{},
	}

	require.NoError(t, p.runWatermark(context.Background(), st, nil))
	assert.Equal(t, outPath, st.finalPath)
	assert.FileExists(t, outPath)
}

type fakeWatermarkProvider struct {
	required     bool
	overlayErr   error
	overlayCalls int
}

func (f *fakeWatermarkProvider) Required(userTier string) bool { return f.required }

func (f *fakeWatermarkProvider) Overlay(ctx context.Context, inputPath, outputPath, userTier string) error {
	f.overlayCalls++
	if f.overlayErr != nil {
		return f.overlayErr
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func TestRunWatermark_RequiredTierOverlaysBeforeMoving(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "final.mp4")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))
	outPath := filepath.Join(dir, "output.mp4")

	provider := &fakeWatermarkProvider{required: true}
	p := &Pipeline{watermark: provider}
	st := &runState{
		bgmPath: src,
		opts:    Options{OutputPath: outPath, UserTier: "free"},
		ws:      newWorkspace(dir, "job1"),
		cl:      &cleanupList{},
	}
	require.NoError(t, st.ws.ensure())

	require.NoError(t, p.runWatermark(context.Background(), st, nil))
	assert.Equal(t, 1, provider.overlayCalls)
	assert.FileExists(t, outPath)
}

func TestRunWatermark_RequiredTierOverlayFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "final.mp4")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	provider := &fakeWatermarkProvider{required: true, overlayErr: assertErr{}}
	p := &Pipeline{watermark: provider}
	st := &runState{
		bgmPath: src,
		opts:    Options{OutputPath: filepath.Join(dir, "output.mp4"), UserTier: "free"},
		ws:      newWorkspace(dir, "job2"),
		cl:      &cleanupList{},
	}
	require.NoError(t, st.ws.ensure())

	err := p.runWatermark(context.Background(), st, nil)
	assert.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "overlay failed" }
