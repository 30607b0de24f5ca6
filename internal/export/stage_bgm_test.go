package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/compositor"
)

func TestRunBGM_NoTracksPassesSubtitlesPathThrough(t *testing.T) {
	p := &Pipeline{}
	st := &runState{
		subtitlesPath: "/tmp/with_subtitles.mp4",
		opts:          Options{Composited: &compositor.Result{}},
	}

	require.NoError(t, p.runBGM(context.Background(), st, nil))
	assert.Equal(t, "/tmp/with_subtitles.mp4", st.bgmPath)
}

func TestBGMAdelayMs_RebasesAgainstVideoStartOffset(t *testing.T) {
	track := compositor.BGMPlacement{TimelineStart: 12, AudioOffset: 1.5}

	assert.Equal(t, 13500, bgmAdelayMs(track, 0))
	assert.Equal(t, 8500, bgmAdelayMs(track, 5))
}

func TestBGMAdelayMs_ClampsToZeroWhenOffsetExceedsTrackStart(t *testing.T) {
	track := compositor.BGMPlacement{TimelineStart: 2, AudioOffset: 0}

	assert.Equal(t, 0, bgmAdelayMs(track, 10))
}

func TestRunState_VideoStartOffset_UsesFirstVisibilitySegment(t *testing.T) {
	st := &runState{
		opts: Options{Composited: &compositor.Result{
			VisibilityMap: []compositor.VisibilitySegment{
				{TimelineStart: 7.25},
				{TimelineStart: 20},
			},
		}},
	}

	assert.Equal(t, 7.25, st.videoStartOffset())
}

func TestRunState_VideoStartOffset_ZeroWhenNoVisibilitySegments(t *testing.T) {
	st := &runState{opts: Options{Composited: &compositor.Result{}}}

	assert.Equal(t, 0.0, st.videoStartOffset())
}
