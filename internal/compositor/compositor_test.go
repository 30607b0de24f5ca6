package compositor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/pkg/logger"
)

type fakeProber struct {
	durations map[string]float64
	info      map[string]VideoInfo
	hasAudio  map[string]bool
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		durations: map[string]float64{},
		info:      map[string]VideoInfo{},
		hasAudio:  map[string]bool{},
	}
}

func (f *fakeProber) ProbeDuration(ctx context.Context, path string) (float64, bool, error) {
	d, ok := f.durations[path]
	return d, ok, nil
}

func (f *fakeProber) ProbeVideoInfo(ctx context.Context, path string) (VideoInfo, error) {
	return f.info[path], nil
}

func (f *fakeProber) HasAudio(ctx context.Context, path string) (bool, error) {
	return f.hasAudio[path], nil
}

func ptr(f float64) *float64 { return &f }

func noopLog() logger.Logger { return logger.New("error") }

func TestCompositor_SingleLayerSingleSegment(t *testing.T) {
	prober := newFakeProber()
	prober.info["a.mp4"] = VideoInfo{Width: 1920, Height: 1080, FPS: 30}

	project := &models.Project{
		ID: "p1",
		Videos: []models.VideoLayer{
			{ID: "A", SourcePath: "a.mp4", Order: 1, SourceStart: 0, SourceEnd: 10},
		},
		GenericSegments: []models.NarrationSegment{
			{ID: "s1", StartTime: 2, EndTime: 5, Text: "hello"},
		},
	}

	res, err := New(prober, noopLog()).Build(context.Background(), project)
	require.NoError(t, err)

	assert.InDelta(t, 10, res.TotalDuration, 1e-6)
	require.Len(t, res.VisibilityMap, 1)
	assert.Equal(t, "A", res.VisibilityMap[0].VideoID)

	require.Len(t, res.Placements, 1)
	assert.InDelta(t, 2, res.Placements[0].TimelineStart, 1e-6)
	assert.InDelta(t, 5, res.Placements[0].TimelineEnd, 1e-6)
	assert.False(t, res.Placements[0].IsContinuation)
}

func TestCompositor_StackPriorityOverlap(t *testing.T) {
	prober := newFakeProber()
	prober.info["a.mp4"] = VideoInfo{}
	prober.info["b.mp4"] = VideoInfo{}

	project := &models.Project{
		ID: "p1",
		Videos: []models.VideoLayer{
			{ID: "A", SourcePath: "a.mp4", Order: 1, TimelineStart: ptr(0), TimelineEnd: ptr(10), SourceStart: 0, SourceEnd: 10},
			{ID: "B", SourcePath: "b.mp4", Order: 2, TimelineStart: ptr(7), TimelineEnd: ptr(22), SourceStart: 0, SourceEnd: 15},
		},
	}

	res, err := New(prober, noopLog()).Build(context.Background(), project)
	require.NoError(t, err)

	require.Len(t, res.VisibilityMap, 2)
	assert.Equal(t, "A", res.VisibilityMap[0].VideoID)
	assert.InDelta(t, 0, res.VisibilityMap[0].TimelineStart, 1e-6)
	assert.InDelta(t, 10, res.VisibilityMap[0].TimelineEnd, 1e-6)

	assert.Equal(t, "B", res.VisibilityMap[1].VideoID)
	assert.InDelta(t, 10, res.VisibilityMap[1].TimelineStart, 1e-6)
	assert.InDelta(t, 22, res.VisibilityMap[1].TimelineEnd, 1e-6)
	assert.InDelta(t, 3, res.VisibilityMap[1].SourceStart, 1e-6)
	assert.InDelta(t, 15, res.VisibilityMap[1].SourceEnd, 1e-6)
}

func TestCompositor_CrossVideoSegmentSplitsIntoContinuation(t *testing.T) {
	prober := newFakeProber()
	prober.info["a.mp4"] = VideoInfo{}
	prober.info["b.mp4"] = VideoInfo{}

	project := &models.Project{
		ID: "p1",
		Videos: []models.VideoLayer{
			{ID: "A", SourcePath: "a.mp4", Order: 1, TimelineStart: ptr(0), TimelineEnd: ptr(10), SourceStart: 0, SourceEnd: 10},
			{ID: "B", SourcePath: "b.mp4", Order: 2, TimelineStart: ptr(7), TimelineEnd: ptr(22), SourceStart: 0, SourceEnd: 15},
		},
		GenericSegments: []models.NarrationSegment{
			{ID: "narr", StartTime: 8, EndTime: 14},
		},
	}

	res, err := New(prober, noopLog()).Build(context.Background(), project)
	require.NoError(t, err)

	require.Len(t, res.Placements, 2)

	first := res.Placements[0]
	assert.InDelta(t, 8, first.TimelineStart, 1e-6)
	assert.InDelta(t, 10, first.TimelineEnd, 1e-6)
	assert.InDelta(t, 0, first.AudioOffset, 1e-6)
	assert.False(t, first.IsContinuation)
	assert.True(t, first.ContinuesIntoNext)

	second := res.Placements[1]
	assert.InDelta(t, 10, second.TimelineStart, 1e-6)
	assert.InDelta(t, 14, second.TimelineEnd, 1e-6)
	assert.InDelta(t, 2, second.AudioOffset, 1e-6)
	assert.True(t, second.IsContinuation)
	assert.False(t, second.ContinuesIntoNext)
}

func TestCompositor_BGMLoopAndClamp(t *testing.T) {
	prober := newFakeProber()
	prober.info["a.mp4"] = VideoInfo{}
	musicPath := filepath.Join(t.TempDir(), "music.mp3")
	require.NoError(t, os.WriteFile(musicPath, []byte("x"), 0o644))
	prober.durations[musicPath] = 20

	project := &models.Project{
		ID: "p1",
		Videos: []models.VideoLayer{
			{ID: "A", SourcePath: "a.mp4", Order: 1, SourceStart: 0, SourceEnd: 60},
		},
		BGMTracks: []models.BGMTrack{
			{ID: "bgm1", Path: musicPath, StartTime: 0, EndTime: 60, Loop: true, FadeOut: 3, Volume: 50},
		},
	}

	res, err := New(prober, noopLog()).Build(context.Background(), project)
	require.NoError(t, err)

	require.Len(t, res.BGMPlacements, 1)
	p := res.BGMPlacements[0]
	assert.True(t, p.NeedsLoop)
	assert.Equal(t, 3, p.LoopCount)
}

func TestCompositor_SegmentEntirelyInGapProducesNoPlacements(t *testing.T) {
	prober := newFakeProber()
	prober.info["a.mp4"] = VideoInfo{}
	prober.info["b.mp4"] = VideoInfo{}

	project := &models.Project{
		ID: "p1",
		Videos: []models.VideoLayer{
			{ID: "A", SourcePath: "a.mp4", Order: 1, TimelineStart: ptr(0), TimelineEnd: ptr(5), SourceStart: 0, SourceEnd: 5},
			{ID: "B", SourcePath: "b.mp4", Order: 1, TimelineStart: ptr(10), TimelineEnd: ptr(15), SourceStart: 0, SourceEnd: 5},
		},
		GenericSegments: []models.NarrationSegment{
			{ID: "in_gap", StartTime: 6, EndTime: 9},
		},
	}

	res, err := New(prober, noopLog()).Build(context.Background(), project)
	require.NoError(t, err)

	assert.Empty(t, res.Placements)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "segment_in_gap", res.Warnings[0].Code)
}

func TestCompositor_IdenticalSpanLowerOrderWins(t *testing.T) {
	prober := newFakeProber()
	prober.info["a.mp4"] = VideoInfo{}
	prober.info["b.mp4"] = VideoInfo{}

	project := &models.Project{
		ID: "p1",
		Videos: []models.VideoLayer{
			{ID: "A", SourcePath: "a.mp4", Order: 2, TimelineStart: ptr(0), TimelineEnd: ptr(5), SourceStart: 0, SourceEnd: 5},
			{ID: "B", SourcePath: "b.mp4", Order: 1, TimelineStart: ptr(0), TimelineEnd: ptr(5), SourceStart: 0, SourceEnd: 5},
		},
	}

	res, err := New(prober, noopLog()).Build(context.Background(), project)
	require.NoError(t, err)

	require.Len(t, res.VisibilityMap, 1)
	assert.Equal(t, "B", res.VisibilityMap[0].VideoID)
}
