package compositor

import (
	"fmt"
	"sort"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

// mapNarrationSegments is stage 3: translate every narration segment to an
// absolute timeline interval, then split it into one placement per
// visibility segment it overlaps, tracking audio_offset as the running sum
// of already-covered duration. layers carries the stage-1-resolved
// timeline windows (unset start/end already turned into concrete values),
// which narration segments referencing a video_id must use instead of the
// project's raw, possibly-unset VideoLayer fields.
func mapNarrationSegments(project *models.Project, layers []layer, visMap []VisibilitySegment) ([]SegmentPlacement, []Warning) {
	resolvedByID := map[string]layer{}
	for _, l := range layers {
		resolvedByID[l.ID] = l
	}

	var placements []SegmentPlacement
	var warnings []Warning

	for _, seg := range project.GenericSegments {
		segPlacements, warn := placeOneSegment(seg, resolvedByID, visMap)
		placements = append(placements, segPlacements...)
		warnings = append(warnings, warn...)
	}

	sort.SliceStable(placements, func(i, j int) bool { return placements[i].TimelineStart < placements[j].TimelineStart })
	return placements, warnings
}

func placeOneSegment(seg models.NarrationSegment, resolvedByID map[string]layer, visMap []VisibilitySegment) ([]SegmentPlacement, []Warning) {
	absStart, absEnd, ok := resolveAbsoluteSpan(seg, resolvedByID)
	if !ok {
		return nil, []Warning{{
			Code:    "unknown_video",
			Message: fmt.Sprintf("segment %s references unknown video %s", seg.ID, seg.VideoID),
		}}
	}

	overlaps := overlappingVisibility(absStart, absEnd, visMap)
	if len(overlaps) == 0 {
		return nil, []Warning{{
			Code:    "segment_in_gap",
			Message: fmt.Sprintf("segment %s lies entirely in an uncovered gap, dropped", seg.ID),
		}}
	}

	var out []SegmentPlacement
	covered := 0.0
	for i, vis := range overlaps {
		start := max64(absStart, vis.TimelineStart)
		end := min64(absEnd, vis.TimelineEnd)
		if end <= start {
			continue
		}

		isContinuation := i > 0
		continuesIntoNext := i < len(overlaps)-1

		out = append(out, SegmentPlacement{
			SegmentID:         seg.ID,
			TimelineStart:     start,
			TimelineEnd:       end,
			AudioPath:         seg.AudioPath,
			SubtitlePath:      seg.SubtitlePath,
			AudioOffset:       covered,
			IsContinuation:    isContinuation,
			ContinuesIntoNext: continuesIntoNext,
		})
		covered += end - start
	}
	return out, nil
}

// resolveAbsoluteSpan computes a segment's absolute [start, end) timeline
// interval. Video-local segments are measured from the owning layer's
// trimmed start and translate 1:1 onto the layer's resolved timeline
// window; when extends_to_next_video is false the span is clamped to the
// layer's own timeline end.
func resolveAbsoluteSpan(seg models.NarrationSegment, resolvedByID map[string]layer) (start, end float64, ok bool) {
	if !seg.IsVideoLocal() {
		return seg.StartTime, seg.EndTime, true
	}

	owner, found := resolvedByID[seg.VideoID]
	if !found {
		return 0, 0, false
	}

	absStart := owner.ResolvedStart + seg.StartTime
	absEnd := owner.ResolvedStart + seg.EndTime

	if !seg.ExtendsToNextVideo && absEnd > owner.ResolvedEnd {
		absEnd = owner.ResolvedEnd
	}
	return absStart, absEnd, true
}

// overlappingVisibility returns every visibility segment whose interval
// intersects [start, end), sorted by timeline_start.
func overlappingVisibility(start, end float64, visMap []VisibilitySegment) []VisibilitySegment {
	var out []VisibilitySegment
	for _, vis := range visMap {
		if vis.TimelineEnd > start+epsilon && vis.TimelineStart < end-epsilon {
			out = append(out, vis)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimelineStart < out[j].TimelineStart })
	return out
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
