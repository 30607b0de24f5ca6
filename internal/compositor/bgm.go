package compositor

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

// mapBGMTracks is stage 4: clamp each track to the output duration and
// compute whether it needs looping.
func (c *Compositor) mapBGMTracks(ctx context.Context, project *models.Project, totalDuration float64) ([]BGMPlacement, []Warning) {
	var placements []BGMPlacement
	var warnings []Warning

	for _, track := range project.BGMTracks {
		if track.Muted {
			continue
		}
		if _, err := os.Stat(track.Path); err != nil {
			warnings = append(warnings, Warning{
				Code:    "missing_bgm",
				Message: fmt.Sprintf("bgm track %s: file not found, dropped: %s", track.ID, track.Path),
			})
			continue
		}

		start := max64(0, track.StartTime)
		end := track.EndTime
		if end <= 0 {
			end = totalDuration
		} else {
			end = min64(end, totalDuration)
		}
		if end <= start {
			continue
		}
		trackSpan := end - start

		sourceDuration, ok, err := c.prober.ProbeDuration(ctx, track.Path)
		if err != nil || !ok || sourceDuration <= 0 {
			warnings = append(warnings, Warning{
				Code:    "bgm_probe_failed",
				Message: fmt.Sprintf("bgm track %s: could not probe source duration, dropped", track.ID),
			})
			continue
		}

		needsLoop := track.Loop && trackSpan > sourceDuration
		loopCount := 1
		if needsLoop {
			loopCount = int(math.Ceil(trackSpan / sourceDuration))
		}

		placements = append(placements, BGMPlacement{
			TrackID:       track.ID,
			Path:          track.Path,
			TimelineStart: start,
			TimelineEnd:   end,
			Volume:        track.Volume,
			FadeIn:        track.FadeIn,
			FadeOut:       track.FadeOut,
			NeedsLoop:     needsLoop,
			LoopCount:     loopCount,
			AudioOffset:   track.AudioOffset,
		})
	}

	return placements, warnings
}
