package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/compositor"
	"github.com/activadee/videocraft-render/internal/domain/models"
)

func TestRunSubtitles_NotRequestedPassesVoiceoverPathThrough(t *testing.T) {
	p := &Pipeline{}
	st := &runState{
		voiceoverPath: "/tmp/with_voiceover.mp4",
		opts:          Options{IncludeSubtitles: false},
	}

	require.NoError(t, p.runSubtitles(context.Background(), st, nil))
	assert.Equal(t, "/tmp/with_voiceover.mp4", st.subtitlesPath)
}

func TestSubtitlePlacementFor_RebasesTimelineStartAgainstVideoStartOffset(t *testing.T) {
	pl := compositor.SegmentPlacement{
		SegmentID:     "s1",
		SubtitlePath:  "/tmp/s1.srt",
		TimelineStart: 15,
		TimelineEnd:   18,
		AudioOffset:   0.5,
	}
	style := models.SubtitleStyle{Font: "Arial"}

	placement := subtitlePlacementFor(pl, 5, style)

	assert.Equal(t, 10*time.Second, placement.TimelineStart, "a 5s leading offset shifts the cue 5s earlier")
	assert.Equal(t, style, placement.Style)
	assert.Equal(t, 3*time.Second, placement.Duration)
}

func TestSubtitlePlacementFor_ClampsToZeroWhenOffsetExceedsPlacementStart(t *testing.T) {
	pl := compositor.SegmentPlacement{TimelineStart: 2, TimelineEnd: 4}

	placement := subtitlePlacementFor(pl, 9, models.SubtitleStyle{})

	assert.Equal(t, time.Duration(0), placement.TimelineStart)
}

func TestRunSubtitles_RequestedButNoSubtitledPlacementsPassesThrough(t *testing.T) {
	p := &Pipeline{}
	st := &runState{
		voiceoverPath: "/tmp/with_voiceover.mp4",
		opts: Options{
			IncludeSubtitles: true,
			Composited: &compositor.Result{
				Placements: []compositor.SegmentPlacement{{SegmentID: "s1", SubtitlePath: ""}},
			},
		},
	}

	require.NoError(t, p.runSubtitles(context.Background(), st, nil))
	assert.Equal(t, "/tmp/with_voiceover.mp4", st.subtitlesPath)
}
