package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/compositor"
)

func TestRunVoiceover_NoPlacementsPassesConcatPathThrough(t *testing.T) {
	p := &Pipeline{}
	st := &runState{
		concatPath: "/tmp/combined.mp4",
		opts:       Options{Composited: &compositor.Result{}},
	}

	require.NoError(t, p.runVoiceover(context.Background(), st, nil))
	assert.Equal(t, "/tmp/combined.mp4", st.voiceoverPath)
}

func TestVoiceoverAdelayMs_RebasesAgainstVideoStartOffset(t *testing.T) {
	pl := compositor.SegmentPlacement{TimelineStart: 30}

	assert.Equal(t, 30000, voiceoverAdelayMs(pl, 0), "no leading offset: delay is the raw timeline start")
	assert.Equal(t, 20000, voiceoverAdelayMs(pl, 10), "a 10s leading offset shortens the delay by 10s")
}

func TestVoiceoverAdelayMs_ClampsToZeroWhenOffsetExceedsPlacementStart(t *testing.T) {
	pl := compositor.SegmentPlacement{TimelineStart: 3}

	assert.Equal(t, 0, voiceoverAdelayMs(pl, 8))
}
