// Command renderworker is the standalone Render Worker process described in
// §4.6: it loads one project, builds the Layer Compositor, drives the
// Export Pipeline, and streams line-delimited JSON progress records to
// stdout. Stderr carries ordinary logs, redirected by the parent
// orchestrator to a file rather than a pipe.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/activadee/videocraft-render/internal/compositor"
	"github.com/activadee/videocraft-render/internal/config"
	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/internal/export"
	"github.com/activadee/videocraft-render/internal/lock"
	"github.com/activadee/videocraft-render/internal/providers"
	"github.com/activadee/videocraft-render/internal/subtitle"
	"github.com/activadee/videocraft-render/internal/toolchain"
	"github.com/activadee/videocraft-render/internal/ttscache"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// argNone is the sentinel the orchestrator passes for an unset optional
// positional argument (§4.6 "[video_id|None] [bgm_path|None]").
const argNone = "None"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	req, err := parseArgs(args)
	if err != nil {
		emit(progressRecord{Type: "error", Message: err.Error()})
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		emit(progressRecord{Type: "error", Message: fmt.Sprintf("failed to load config: %v", err)})
		return 1
	}

	log := logger.NewWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr).
		WithFields(map[string]interface{}{"component": "render_worker", "project": req.ProjectName})

	if err := render(context.Background(), cfg, log, req); err != nil {
		re := toRenderError(err)
		emit(progressRecord{Type: "error", Message: re.Message})
		log.WithError(re).Error("render failed")
		return 1
	}

	return 0
}

// render wires every collaborator and drives one export end to end. The
// project file's advisory lock is held for the whole render (not just the
// load/persist edges) because the TTS stage mutates segment audio/subtitle
// paths in place and those must be persisted before a second worker on the
// same project could observe a stale cache miss.
func render(ctx context.Context, cfg *config.Config, log logger.Logger, req *workerRequest) error {
	projectPath := filepath.Join(cfg.Storage.ProjectsDir, req.ProjectName+".json")

	tc := toolchain.New(cfg, log)
	subtitleEngine := subtitle.New(tc, log)
	ttsProvider := providers.NewTTSClient(cfg.External.TTSEndpoint, cfg.External.RequestTimeout, log)
	ttsCache := ttscache.New(cfg.TTSCache.Dir, ttsProvider, tc, log)
	fontProvider := providers.NewFontClient(cfg.External.FontEndpoint, cfg.External.RequestTimeout, log)
	watermarkProvider := providers.NewWatermarkClient(cfg.External.WatermarkEndpoint, cfg.External.RequestTimeout, log)

	comp := compositor.New(compositor.NewToolchainProber(tc), log)
	pipeline := export.New(tc, subtitleEngine, ttsCache, fontProvider, watermarkProvider, cfg, log)

	// The worker's own CLI contract (§4.6) carries no job id; it has no
	// need for one beyond namespacing this process's temp workspace, so a
	// fresh one is minted here rather than threaded in from the
	// orchestrator's job id.
	jobID := uuid.New().String()

	return lock.WithProjectLock(ctx, projectPath, cfg.Job.ProjectLockTimeout, func(project *models.Project) (*models.Project, error) {
		if err := validateProject(project); err != nil {
			return nil, err
		}
		warnings := dropMissingBGM(project, log)

		// renderProject is what the compositor/pipeline actually see: for a
		// "single" export this is a video-scoped view so the output contains
		// only that layer, and any ad hoc bgm_path is added here rather than
		// to the persisted project. project itself (the full, unfiltered
		// timeline) is what gets written back, carrying forward whatever
		// fresh audio/subtitle paths the tts stage fills in.
		renderProject := project
		if req.ExportType == models.ExportTypeSingle && req.VideoID != "" {
			renderProject = scopeToVideo(project, req.VideoID)
		}
		if req.BGMPath != "" {
			if _, err := os.Stat(req.BGMPath); err != nil {
				warnings = append(warnings, fmt.Sprintf("bgm_path %s: file not found, ignoring", req.BGMPath))
			} else {
				renderProject.BGMTracks = append(append([]models.BGMTrack{}, renderProject.BGMTracks...), models.BGMTrack{
					ID: "adhoc-bgm", Path: req.BGMPath, Volume: 100,
				})
			}
		}

		result, err := comp.Build(ctx, renderProject)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, warningMessages(result.Warnings)...)
		for _, w := range warnings {
			emit(progressRecord{Type: "progress", Stage: "preprocessing", Message: w, Detail: w})
		}

		// progress=-1 from the pipeline is a detail-only refresh (see
		// export.progressAdapter); lastProgress carries the most recent
		// real percentage forward so the wire protocol never regresses
		// below it or emits a negative value (§5 monotonic progress).
		lastProgress := 0
		onProgress := func(stage export.Stage, progress int, detail string) {
			if progress >= 0 {
				lastProgress = progress
			}
			emit(progressRecord{
				Type:     "progress",
				Stage:    string(stage),
				Progress: lastProgress,
				Detail:   detail,
				Message:  fmt.Sprintf("stage %s", stage),
			})
		}

		_, err = pipeline.Run(ctx, export.Options{
			JobID:            jobID,
			Project:          renderProject,
			Composited:       result,
			Quality:          req.Quality,
			IncludeSubtitles: req.IncludeSubtitles,
			UserTier:         req.UserTier,
			OutputPath:       req.OutputPath,
		}, onProgress)
		if err != nil {
			return nil, err
		}

		mergeSynthesizedSegments(project, renderProject)

		// Persist the full project so segments synthesized by the tts stage
		// are warm-cached for the next render (§4.5 "tts"), regardless of
		// whether this particular render was scoped to one video.
		return project, nil
	})
}

// scopeToVideo returns a shallow copy of project restricted to one video
// layer and the narration segments that belong to it (video-local segments
// for that id, plus every generic/absolute segment — those aren't owned by
// any one layer). BGMTracks carry over unchanged; single-video exports
// still want the project's music bed.
func scopeToVideo(project *models.Project, videoID string) *models.Project {
	scoped := *project
	scoped.Videos = nil
	for _, v := range project.Videos {
		if v.ID == videoID {
			scoped.Videos = append(scoped.Videos, v)
		}
	}
	scoped.GenericSegments = nil
	for _, s := range project.GenericSegments {
		if !s.IsVideoLocal() || s.VideoID == videoID {
			scoped.GenericSegments = append(scoped.GenericSegments, s)
		}
	}
	return &scoped
}

// mergeSynthesizedSegments copies AudioPath/SubtitlePath filled in by the
// tts stage on renderProject's segments back onto the corresponding
// segments of the full project, so a "single" export still warms the
// shared cache for everyone, not just the scoped view that was rendered.
func mergeSynthesizedSegments(project, renderProject *models.Project) {
	if project == renderProject {
		return
	}
	byID := make(map[string]*models.NarrationSegment, len(project.GenericSegments))
	for i := range project.GenericSegments {
		byID[project.GenericSegments[i].ID] = &project.GenericSegments[i]
	}
	for _, seg := range renderProject.GenericSegments {
		if target, ok := byID[seg.ID]; ok {
			target.AudioPath = seg.AudioPath
			target.SubtitlePath = seg.SubtitlePath
		}
	}
}

// dropMissingBGM implements §4.6's "BGM with missing file is dropped with a
// warning, not fatal" rule, mutating project.BGMTracks in place.
func dropMissingBGM(project *models.Project, log logger.Logger) []string {
	var warnings []string
	kept := project.BGMTracks[:0]
	for _, track := range project.BGMTracks {
		if _, err := os.Stat(track.Path); err != nil {
			msg := fmt.Sprintf("bgm track %s: file not found, dropping: %s", track.ID, track.Path)
			log.Warn(msg)
			warnings = append(warnings, msg)
			continue
		}
		kept = append(kept, track)
	}
	project.BGMTracks = kept
	return warnings
}

// validateProject runs the §4.6 pre-work validation: the project's own
// per-entity Validate() covers segment/BGM time-range sanity; this adds the
// filesystem checks (video source paths must exist) Project.Validate()
// deliberately leaves to the worker.
func validateProject(project *models.Project) error {
	if err := project.Validate(); err != nil {
		return rerrors.InvalidInput(err.Error())
	}
	for _, v := range project.Videos {
		if _, err := os.Stat(v.SourcePath); err != nil {
			return rerrors.MissingInput("video source", v.SourcePath)
		}
	}
	return nil
}

func warningMessages(warnings []compositor.Warning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Message)
	}
	return out
}

// workerRequest is the parsed form of §4.6's positional CLI contract.
type workerRequest struct {
	ProjectName      string
	OutputPath       string
	Quality          models.Quality
	IncludeSubtitles bool
	ExportType       models.ExportType
	VideoID          string
	BGMPath          string
	UserTier         string
}

// parseArgs matches execLauncher.Launch's emission order exactly:
// project_name, output_path, quality, include_subtitles, export_type,
// video_id, bgm_path, user_tier.
func parseArgs(args []string) (*workerRequest, error) {
	if len(args) < 5 {
		return nil, rerrors.InvalidInput("usage: render_worker <project_name> <output_path> <quality> <include_subtitles> <export_type> [video_id] [bgm_path] [user_tier]")
	}

	req := &workerRequest{
		ProjectName:      args[0],
		OutputPath:       args[1],
		Quality:          models.Quality(args[2]),
		IncludeSubtitles: args[3] == "true",
		ExportType:       models.ExportType(args[4]),
	}
	if req.ProjectName == "" {
		return nil, rerrors.InvalidInput("project_name is required")
	}

	req.VideoID = optionalArg(args, 5)
	req.BGMPath = optionalArg(args, 6)
	req.UserTier = optionalArg(args, 7)
	return req, nil
}

func optionalArg(args []string, idx int) string {
	if idx >= len(args) || args[idx] == argNone {
		return ""
	}
	return args[idx]
}

// progressRecord is the line-delimited JSON shape §4.6 specifies for
// stdout. Encoded directly (rather than reusing models.ProgressEvent) so
// zero-value fields the spec lists as optional are omitted the same way
// regardless of which caller constructs the record.
type progressRecord struct {
	Type            string  `json:"type"`
	Stage           string  `json:"stage,omitempty"`
	Message         string  `json:"message,omitempty"`
	Progress        int     `json:"progress,omitempty"`
	CurrentStep     int     `json:"current_step,omitempty"`
	TotalSteps      int     `json:"total_steps,omitempty"`
	Detail          string  `json:"detail,omitempty"`
	ETASeconds      float64 `json:"eta_seconds,omitempty"`
	ETAFormatted    string  `json:"eta_formatted,omitempty"`
	ProcessingSpeed float64 `json:"processing_speed,omitempty"`
	FFmpegProgress  float64 `json:"ffmpeg_progress,omitempty"`
}

var lastEmit time.Time

// emit writes one progress record to stdout, rate-limited to 500ms between
// updates per §5's backpressure rule ("default 500 ms between updates per
// stage") so a burst of ffmpeg progress ticks never fills the parent's pipe
// buffer. Terminal records (error, or a 100% stage) are never rate-limited.
func emit(rec progressRecord) {
	now := time.Now()
	if rec.Type != "error" && rec.Progress < 100 && now.Sub(lastEmit) < 500*time.Millisecond {
		return
	}
	lastEmit = now

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}

func toRenderError(err error) *rerrors.RenderError {
	if re, ok := err.(*rerrors.RenderError); ok {
		return re
	}
	return rerrors.InternalError(err)
}
