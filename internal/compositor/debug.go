package compositor

import (
	"fmt"
	"strings"
)

// debugDump renders a textual trace of a build result (§4.4): total
// duration, visibility map, segment placements, BGM placements and
// warnings. The input layers are not listed. It is reachable through
// Compositor.DebugDump; nothing in the render path calls it.
func debugDump(res *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "total_duration=%.3f\n", res.TotalDuration)

	b.WriteString("visibility_map:\n")
	for _, v := range res.VisibilityMap {
		fmt.Fprintf(&b, "  [%d] video=%s timeline=[%.3f,%.3f) source=[%.3f,%.3f)\n",
			v.VideoIndex, v.VideoID, v.TimelineStart, v.TimelineEnd, v.SourceStart, v.SourceEnd)
	}

	b.WriteString("placements:\n")
	for _, p := range res.Placements {
		fmt.Fprintf(&b, "  segment=%s timeline=[%.3f,%.3f) audio_offset=%.3f continuation=%v continues_into_next=%v\n",
			p.SegmentID, p.TimelineStart, p.TimelineEnd, p.AudioOffset, p.IsContinuation, p.ContinuesIntoNext)
	}

	b.WriteString("bgm_placements:\n")
	for _, p := range res.BGMPlacements {
		fmt.Fprintf(&b, "  track=%s timeline=[%.3f,%.3f) loop=%v loop_count=%d volume=%.1f\n",
			p.TrackID, p.TimelineStart, p.TimelineEnd, p.NeedsLoop, p.LoopCount, p.Volume)
	}

	b.WriteString("warnings:\n")
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "  [%s] %s\n", w.Code, w.Message)
	}

	return b.String()
}
