package compositor

import "sort"

// computeVisibilityMap is stage 2: collect layer boundaries, sweep
// adjacent pairs, and for each keep only the top layer (argmin(order))
// among those active across the slice. Sorting the boundaries is
// O(n log n), but every slice scans all layers, so the sweep as a whole
// is O(n^2) in layer count.
func computeVisibilityMap(layers []layer) ([]VisibilitySegment, float64) {
	boundarySet := map[float64]struct{}{}
	for _, l := range layers {
		boundarySet[l.ResolvedStart] = struct{}{}
		boundarySet[l.ResolvedEnd] = struct{}{}
	}
	boundaries := make([]float64, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Float64s(boundaries)

	var raw []VisibilitySegment
	for i := 0; i+1 < len(boundaries); i++ {
		t0, t1 := boundaries[i], boundaries[i+1]
		if t1-t0 < epsilon {
			continue
		}

		var top *layer
		for idx := range layers {
			l := &layers[idx]
			if l.ResolvedStart <= t0+epsilon && l.ResolvedEnd >= t1-epsilon {
				if top == nil || l.Order < top.Order {
					top = l
				}
			}
		}
		if top == nil {
			continue // gap: no layer covers this slice
		}

		sourceStart := top.SourceStart + (t0 - top.ResolvedStart)
		sourceEnd := top.SourceStart + (t1 - top.ResolvedStart)

		raw = append(raw, VisibilitySegment{
			VideoID:       top.ID,
			TimelineStart: t0,
			TimelineEnd:   t1,
			SourceStart:   sourceStart,
			SourceEnd:     sourceEnd,
		})
	}

	merged := mergeAbutting(raw)
	assignVideoIndexes(merged)

	var total float64
	for _, s := range merged {
		total += s.Duration()
	}
	return merged, total
}

// mergeAbutting merges consecutive segments from the same video whose
// endpoints abut within epsilon, and whose source ranges are themselves
// contiguous (so the merge doesn't silently paper over a same-video cut).
func mergeAbutting(segments []VisibilitySegment) []VisibilitySegment {
	if len(segments) == 0 {
		return nil
	}
	merged := []VisibilitySegment{segments[0]}
	for _, s := range segments[1:] {
		last := &merged[len(merged)-1]
		if last.VideoID == s.VideoID &&
			abs(s.TimelineStart-last.TimelineEnd) < epsilon &&
			abs(s.SourceStart-last.SourceEnd) < epsilon {
			last.TimelineEnd = s.TimelineEnd
			last.SourceEnd = s.SourceEnd
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func assignVideoIndexes(segments []VisibilitySegment) {
	indexes := map[string]int{}
	for i := range segments {
		id := segments[i].VideoID
		if _, ok := indexes[id]; !ok {
			indexes[id] = len(indexes)
		}
		segments[i].VideoIndex = indexes[id]
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
