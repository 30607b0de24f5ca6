// Package export runs the stage machine described in §4.5: preprocessing,
// font install, TTS synthesis, per-visibility-segment extraction,
// concatenation, voice-over mixing, subtitle burn-in, BGM mixing, and an
// optional watermark pass. Every stage registers its temp files with a
// job-scoped cleanup list that runs on every exit path.
package export

import (
	"context"
	"fmt"

	"github.com/activadee/videocraft-render/internal/compositor"
	"github.com/activadee/videocraft-render/internal/config"
	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/internal/subtitle"
	"github.com/activadee/videocraft-render/internal/toolchain"
	"github.com/activadee/videocraft-render/internal/ttscache"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// Stage names the stage machine's states (§4.5). "error" is reachable from
// any state and is not itself a stage value — it is represented by Run
// returning a non-nil error instead.
type Stage string

const (
	StagePreprocessing Stage = "preprocessing"
	StageFonts         Stage = "fonts"
	StageTTS           Stage = "tts"
	StageSegments      Stage = "segments"
	StageCombining     Stage = "combining"
	StageVoiceover     Stage = "voiceover"
	StageSubtitles     Stage = "subtitles"
	StageBGM           Stage = "bgm"
	StageWatermark     Stage = "watermark"
	StageDone          Stage = "done"
)

// stageOrder drives progress percentage: each stage spans an equal share
// of [0, 100), monotonically non-decreasing per §5's ordering guarantee.
var stageOrder = []Stage{
	StagePreprocessing, StageFonts, StageTTS, StageSegments,
	StageCombining, StageVoiceover, StageSubtitles, StageBGM, StageWatermark,
}

// FontProvider is the external Font Provider (§6). Failure to install a
// font is a warning, never fatal — rendering proceeds with the system
// default.
type FontProvider interface {
	EnsureFont(ctx context.Context, family string) (ok bool, err error)
}

// WatermarkProvider overlays a tier-determined watermark onto the combined
// output. A tier that does not require a watermark never calls this.
type WatermarkProvider interface {
	Overlay(ctx context.Context, inputPath, outputPath, userTier string) error
	Required(userTier string) bool
}

// OnProgress receives one update per emitted stage transition or ffmpeg
// progress tick. detail carries warning text for recovered errors (§7).
type OnProgress func(stage Stage, progress int, detail string)

// Options is one export's full request, already resolved by the
// orchestrator (project loaded, compositor run).
type Options struct {
	JobID            string
	Project          *models.Project
	Composited       *compositor.Result
	Quality          models.Quality
	IncludeSubtitles bool
	UserTier         string
	OutputPath       string
}

// Pipeline wires the stage machine's external collaborators together. It
// holds no per-job state — Run constructs a fresh runState for each call so
// concurrent jobs never share mutable pipeline state.
type Pipeline struct {
	tc        *toolchain.Adapter
	subtitles *subtitle.Engine
	tts       *ttscache.Cache
	fonts     FontProvider
	watermark WatermarkProvider
	cfg       *config.Config
	log       logger.Logger
}

func New(tc *toolchain.Adapter, subtitles *subtitle.Engine, tts *ttscache.Cache, fonts FontProvider, watermark WatermarkProvider, cfg *config.Config, log logger.Logger) *Pipeline {
	return &Pipeline{
		tc: tc, subtitles: subtitles, tts: tts, fonts: fonts, watermark: watermark,
		cfg: cfg, log: log.WithField("component", "export"),
	}
}

// runState carries the artifacts each stage hands to the next. Paths are
// workspace-relative temp files except finalPath, which ends up at
// opts.OutputPath on success.
type runState struct {
	opts Options
	log  logger.Logger
	ws   *workspace
	cl   *cleanupList

	primaryAudioAdded    bool
	segmentOutputs       []segmentExtraction
	concatPath           string
	concatHasAudio       bool
	voiceoverPath        string
	subtitlesPath        string
	bgmPath              string
	finalPath            string
	warnings             []string
}

// videoStartOffset is the timeline position the combined output's own t=0
// actually starts at: the first visibility segment's TimelineStart. Every
// placement time (voiceover adelay, BGM adelay, subtitle cue shift) is
// relative to the original project timeline and must be rebased against
// this before it means anything on the rendered output.
func (st *runState) videoStartOffset() float64 {
	if len(st.opts.Composited.VisibilityMap) == 0 {
		return 0
	}
	return st.opts.Composited.VisibilityMap[0].TimelineStart
}

// adjustedTimelineStart rebases an absolute project-timeline time against
// videoStartOffset, clamped to 0 (a placement can't start before the
// rendered output does).
func adjustedTimelineStart(timelineStart, videoStartOffset float64) float64 {
	adjusted := timelineStart - videoStartOffset
	if adjusted < 0 {
		return 0
	}
	return adjusted
}

type segmentExtraction struct {
	vis  compositor.VisibilitySegment
	path string
}

// Run executes every stage in order and returns the final output path.
// On any error the cleanup list runs before returning; on success it runs
// too, since the workspace's temp files (as opposed to the output file
// itself, which lives outside the workspace) are never needed again.
func (p *Pipeline) Run(ctx context.Context, opts Options, onProgress OnProgress) (outputPath string, err error) {
	ws := newWorkspace(p.cfg.Storage.TempDir, opts.JobID)
	if err := ws.ensure(); err != nil {
		return "", rerrors.InternalError(err)
	}
	cl := &cleanupList{}
	st := &runState{opts: opts, log: p.log, ws: ws, cl: cl}

	defer func() {
		cl.run(p.log)
		if err != nil {
			ws.removeAll()
		}
	}()

	stages := []struct {
		stage Stage
		run   func(context.Context, *runState, OnProgress) error
	}{
		{StagePreprocessing, p.runPreprocessing},
		{StageFonts, p.runFonts},
		{StageTTS, p.runTTS},
		{StageSegments, p.runSegments},
		{StageCombining, p.runCombining},
		{StageVoiceover, p.runVoiceover},
		{StageSubtitles, p.runSubtitles},
		{StageBGM, p.runBGM},
		{StageWatermark, p.runWatermark},
	}

	for i, s := range stages {
		if onProgress != nil {
			onProgress(s.stage, stageProgress(i, len(stages)), "")
		}
		if err := s.run(ctx, st, onProgress); err != nil {
			return "", err
		}
	}

	if onProgress != nil {
		onProgress(StageDone, 100, "")
	}
	return st.finalPath, nil
}

func stageProgress(index, total int) int {
	return (index * 100) / total
}

func (st *runState) warn(format string, args ...interface{}) {
	st.warnings = append(st.warnings, fmt.Sprintf(format, args...))
}
