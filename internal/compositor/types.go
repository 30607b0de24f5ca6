// Package compositor implements the Layer Compositor (§4.4): it turns a
// layered, possibly overlapping project timeline into a flat visibility
// map, places narration segments and BGM tracks onto absolute timeline
// positions, and splits segments that cross visibility boundaries.
package compositor

import "context"

// epsilon is the "abutting" tolerance used when merging adjacent
// visibility segments and when comparing boundary times (§4.4 stage 2:
// "|gap| < 1 ms").
const epsilon = 0.001

// VisibilitySegment is a maximal interval during which exactly one layer
// is visible (§3).
type VisibilitySegment struct {
	VideoID       string
	VideoIndex    int
	TimelineStart float64
	TimelineEnd   float64
	SourceStart   float64
	SourceEnd     float64
}

func (v VisibilitySegment) Duration() float64 { return v.TimelineEnd - v.TimelineStart }

// SegmentPlacement is a contiguous audible/visible slice of one narration
// segment (§3).
type SegmentPlacement struct {
	SegmentID         string
	TimelineStart     float64
	TimelineEnd       float64
	AudioPath         string
	SubtitlePath      string
	AudioOffset       float64
	IsContinuation    bool
	ContinuesIntoNext bool
}

func (p SegmentPlacement) Duration() float64 { return p.TimelineEnd - p.TimelineStart }

// BGMPlacement is a background-music track mapped onto the absolute
// timeline, with looping and fade parameters resolved (§3).
type BGMPlacement struct {
	TrackID       string
	Path          string
	TimelineStart float64
	TimelineEnd   float64
	Volume        float64
	FadeIn        float64
	FadeOut       float64
	Muted         bool
	NeedsLoop     bool
	LoopCount     int
	AudioOffset   float64
}

func (p BGMPlacement) Duration() float64 { return p.TimelineEnd - p.TimelineStart }

// Warning is a non-fatal condition surfaced alongside a successful Build
// (§4.2/§4.4 "skipped with a warning" rules).
type Warning struct {
	Code    string
	Message string
}

// Result is everything the Export Pipeline needs from one compositor run.
type Result struct {
	VisibilityMap []VisibilitySegment
	Placements    []SegmentPlacement
	BGMPlacements []BGMPlacement
	TotalDuration float64
	Warnings      []Warning
}

// VideoProber is the subset of the toolchain adapter the compositor needs
// to resolve probed layer attributes and BGM source durations. Kept as an
// interface so tests can supply a fake prober without spawning a process.
type VideoProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, bool, error)
	ProbeVideoInfo(ctx context.Context, path string) (VideoInfo, error)
	HasAudio(ctx context.Context, path string) (bool, error)
}

// VideoInfo mirrors toolchain.VideoInfo; declared locally so this package
// does not need to import toolchain's exec-facing types just to describe
// its own dependency's return shape.
type VideoInfo struct {
	Width  int
	Height int
	FPS    float64
	Codec  string
	PixFmt string
}
