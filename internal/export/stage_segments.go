package export

import (
	"context"
	"fmt"

	"github.com/activadee/videocraft-render/internal/compositor"
	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/toolchain"
)

// minFrameDuration is one frame at a conservative 24fps floor; visibility
// segments shorter than this are skipped outright (§4.5 "segments" edge
// case — "if source_end - source_start < one frame, skip").
const minFrameDuration = 1.0 / 24.0

// runSegments extracts exactly the [source_start, source_end) window of
// each visibility segment with the frame-accurate filter-graph form: trim,
// PTS reset, fps normalization, scale-and-pad to the target resolution,
// and SAR reset, so every extracted segment shares identical streams for
// cheap concatenation downstream.
func (p *Pipeline) runSegments(ctx context.Context, st *runState, onProgress OnProgress) error {
	videosByID := map[string]string{}
	hasAudioByID := map[string]bool{}
	for _, v := range st.opts.Project.Videos {
		videosByID[v.ID] = v.SourcePath
		hasAudioByID[v.ID] = v.HasAudio
	}

	targetW, targetH, targetFPS, err := p.resolveTargetFormat(ctx, st)
	if err != nil {
		return err
	}

	for i, vis := range st.opts.Composited.VisibilityMap {
		duration := vis.Duration()
		if duration < minFrameDuration {
			st.warn("visibility segment %d shorter than one frame, skipped", i)
			continue
		}

		sourcePath, ok := videosByID[vis.VideoID]
		if !ok {
			return rerrors.InvalidInput(fmt.Sprintf("visibility segment references unknown video %s", vis.VideoID))
		}

		outPath := st.ws.path(fmt.Sprintf("segment_%03d.mp4", i))
		args := buildSegmentExtractionArgs(sourcePath, outPath, vis, hasAudioByID[vis.VideoID], targetW, targetH, targetFPS)

		if _, _, err := p.tc.Run(ctx, args, duration, progressAdapter(onProgress, StageSegments), p.cfg.Toolchain.SegmentTimeout); err != nil {
			return err
		}

		st.cl.register(outPath)
		st.segmentOutputs = append(st.segmentOutputs, segmentExtraction{vis: vis, path: outPath})
	}

	return nil
}

// resolveTargetFormat probes the first visibility segment's source to pick
// the output resolution and frame rate every extracted segment normalizes
// to.
func (p *Pipeline) resolveTargetFormat(ctx context.Context, st *runState) (width, height int, fps float64, err error) {
	if len(st.opts.Composited.VisibilityMap) == 0 {
		return 0, 0, 0, rerrors.InvalidInput("no visibility segments to export")
	}

	first := st.opts.Composited.VisibilityMap[0]
	var sourcePath string
	for _, v := range st.opts.Project.Videos {
		if v.ID == first.VideoID {
			sourcePath = v.SourcePath
			break
		}
	}
	if sourcePath == "" {
		return 0, 0, 0, rerrors.InvalidInput(fmt.Sprintf("unknown video %s", first.VideoID))
	}

	info, err := p.tc.ProbeVideoInfo(ctx, sourcePath)
	if err != nil {
		return 0, 0, 0, err
	}
	fps = info.FPS
	if fps <= 0 {
		fps = 30
	}
	return info.Width, info.Height, fps, nil
}

func buildSegmentExtractionArgs(sourcePath, outPath string, vis compositor.VisibilitySegment, hasAudio bool, targetW, targetH int, targetFPS float64) []string {
	videoFilter := fmt.Sprintf(
		"[0:v]trim=start=%f:end=%f,setpts=PTS-STARTPTS,fps=%f,scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[vout]",
		vis.SourceStart, vis.SourceEnd, targetFPS, targetW, targetH, targetW, targetH)

	var audioFilter string
	args := []string{"-y", "-i", sourcePath}
	if hasAudio {
		audioFilter = fmt.Sprintf("[0:a]atrim=start=%f:end=%f,asetpts=PTS-STARTPTS,aresample=48000[aout]", vis.SourceStart, vis.SourceEnd)
	} else {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=48000")
		audioFilter = fmt.Sprintf("[1:a]atrim=duration=%f,asetpts=PTS-STARTPTS[aout]", vis.Duration())
	}

	args = append(args,
		"-filter_complex", videoFilter+";"+audioFilter,
		"-map", "[vout]", "-map", "[aout]",
		"-force_key_frames", "expr:eq(n,0)",
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "18",
		"-c:a", "aac",
		outPath,
	)
	return args
}

// progressAdapter bridges the toolchain's per-encoder progress ticks into
// OnProgress detail-only updates. progress=-1 is a sentinel meaning "no
// change to the stage percentage, just a detail string refresh" — callers
// must not let it regress the monotonic progress value tracked elsewhere.
func progressAdapter(onProgress OnProgress, stage Stage) toolchain.OnProgress {
	if onProgress == nil {
		return nil
	}
	return func(prog toolchain.Progress) {
		onProgress(stage, -1, fmt.Sprintf("speed=%.2fx fps=%.1f", prog.Speed, prog.FPS))
	}
}
