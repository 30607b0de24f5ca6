package export

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/activadee/videocraft-render/internal/compositor"
	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/internal/subtitle"
	"github.com/activadee/videocraft-render/internal/toolchain"
)

// defaultSubtitlePlayResY is the reference height subtitle.Engine.Combine
// scales every placement's font metrics against when the compositor's
// target resolution isn't itself resolvable (should not happen once
// runSegments has run, but keeps Combine's contract satisfiable either way).
const defaultSubtitlePlayResY = 1080

// runSubtitles burns a combined, styled subtitle track into the video via
// the `subtitles=` filter when the caller requested them (§4.5 "subtitles").
// Projects with no subtitle-enabled placements, or callers that didn't ask
// for subtitles, pass the voiceover output straight through.
func (p *Pipeline) runSubtitles(ctx context.Context, st *runState, onProgress OnProgress) error {
	if !st.opts.IncludeSubtitles {
		st.subtitlesPath = st.voiceoverPath
		return nil
	}

	videoStartOffset := st.videoStartOffset()
	var placements []subtitle.Placement
	for _, pl := range st.opts.Composited.Placements {
		if pl.SubtitlePath == "" {
			continue
		}
		placements = append(placements, subtitlePlacementFor(pl, videoStartOffset, styleForSegment(st, pl.SegmentID)))
	}

	if len(placements) == 0 {
		st.subtitlesPath = st.voiceoverPath
		return nil
	}

	info, err := p.tc.ProbeVideoInfo(ctx, st.voiceoverPath)
	width, height := defaultSubtitlePlayResY*16/9, defaultSubtitlePlayResY
	if err == nil && info.Width > 0 && info.Height > 0 {
		width, height = info.Width, info.Height
	}

	assContent, err := p.subtitles.Combine(ctx, placements, width, height)
	if err != nil {
		return rerrors.InternalError(err)
	}

	assPath := st.ws.path("combined_subtitles.ass")
	if err := os.WriteFile(assPath, []byte(assContent), 0o644); err != nil {
		return rerrors.InternalError(err)
	}
	st.cl.register(assPath)

	outPath := st.ws.path("with_subtitles.mp4")
	args := []string{
		"-y", "-i", st.voiceoverPath,
		"-vf", fmt.Sprintf("subtitles='%s'", toolchain.EscapeFilterPath(assPath)),
		"-c:a", "copy",
		outPath,
	}

	if _, _, err := p.tc.Run(ctx, args, 0, progressAdapter(onProgress, StageSubtitles), p.cfg.Toolchain.SegmentTimeout); err != nil {
		return err
	}

	st.cl.register(outPath)
	st.subtitlesPath = outPath
	return nil
}

// subtitlePlacementFor converts one composited narration placement into a
// subtitle cue placement, rebasing TimelineStart against videoStartOffset
// so cue shifts line up with the rendered output's own t=0 rather than the
// original project timeline.
func subtitlePlacementFor(pl compositor.SegmentPlacement, videoStartOffset float64, style models.SubtitleStyle) subtitle.Placement {
	return subtitle.Placement{
		SegmentID:     pl.SegmentID,
		SubtitlePath:  pl.SubtitlePath,
		TimelineStart: secondsToDuration(adjustedTimelineStart(pl.TimelineStart, videoStartOffset)),
		AudioOffset:   secondsToDuration(pl.AudioOffset),
		Duration:      secondsToDuration(pl.Duration()),
		Style:         style,
	}
}

func styleForSegment(st *runState, segmentID string) models.SubtitleStyle {
	for _, seg := range st.opts.Project.GenericSegments {
		if seg.ID == segmentID {
			return seg.Style
		}
	}
	return models.SubtitleStyle{}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
