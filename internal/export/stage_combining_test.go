package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteConcatList_QuotesEveryPathEntry(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")
	segments := []segmentExtraction{
		{path: "/tmp/segment_000.mp4"},
		{path: "/tmp/it's a segment.mp4"},
	}

	require.NoError(t, writeConcatList(listPath, segments))

	data, err := os.ReadFile(listPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "file '/tmp/segment_000.mp4'\n")
	assert.Contains(t, content, `file '/tmp/it'\''s a segment.mp4'`)
}

func TestRunCombining_SingleSegmentPassesThroughWithoutInvokingFFmpeg(t *testing.T) {
	p := &Pipeline{}
	st := &runState{
		segmentOutputs: []segmentExtraction{{path: "/tmp/only-segment.mp4"}},
		cl:             &cleanupList{},
	}

	err := p.runCombining(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/only-segment.mp4", st.concatPath)
	assert.True(t, st.concatHasAudio)
}

func TestRunCombining_NoSegmentsIsInvalidInput(t *testing.T) {
	p := &Pipeline{}
	st := &runState{cl: &cleanupList{}}

	err := p.runCombining(context.Background(), st, nil)
	assert.Error(t, err)
}
