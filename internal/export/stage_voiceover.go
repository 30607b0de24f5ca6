package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/activadee/videocraft-render/internal/compositor"
)

// runVoiceover mixes every narration segment placement's TTS audio onto the
// combined track, attenuating the original audio under narration and
// boosting the voiceover itself (§4.5 "voiceover", §9 mixing baselines).
// A project with no narration segments leaves st.concatPath untouched.
func (p *Pipeline) runVoiceover(ctx context.Context, st *runState, onProgress OnProgress) error {
	placements := st.opts.Composited.Placements
	if len(placements) == 0 {
		st.voiceoverPath = st.concatPath
		return nil
	}

	outPath := st.ws.path("with_voiceover.mp4")
	args := []string{"-y", "-i", st.concatPath}

	var mixInputs []string
	var filters []string
	boost := fmt.Sprintf("volume=%gdB", p.cfg.Mixing.VoiceOverBoostDB)
	attenuation := fmt.Sprintf("volume=%g", p.cfg.Mixing.OriginalAudioAttenuation)

	filters = append(filters, fmt.Sprintf("[0:a]%s[orig]", attenuation))
	mixInputs = append(mixInputs, "[orig]")

	videoStartOffset := st.videoStartOffset()
	nextInput := 1 // input 0 is the combined video/audio track
	for i, pl := range placements {
		if pl.AudioPath == "" {
			continue
		}
		args = append(args, "-i", pl.AudioPath)
		streamIdx := nextInput
		nextInput++

		delayMs := voiceoverAdelayMs(pl, videoStartOffset)
		label := fmt.Sprintf("v%d", i)
		filters = append(filters, fmt.Sprintf(
			"[%d:a]atrim=start=%f:duration=%f,asetpts=PTS-STARTPTS,%s,adelay=%d|%d[%s]",
			streamIdx, pl.AudioOffset, pl.Duration(), boost,
			delayMs, delayMs, label,
		))
		mixInputs = append(mixInputs, fmt.Sprintf("[%s]", label))
	}

	filters = append(filters, fmt.Sprintf(
		"%samix=inputs=%d:duration=first:dropout_transition=0[aout]",
		strings.Join(mixInputs, ""), len(mixInputs),
	))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "0:v", "-map", "[aout]",
		"-c:v", "copy", "-c:a", "aac",
		outPath,
	)

	if _, _, err := p.tc.Run(ctx, args, 0, progressAdapter(onProgress, StageVoiceover), p.cfg.Toolchain.BGMMixTimeout); err != nil {
		return err
	}

	st.cl.register(outPath)
	st.voiceoverPath = outPath
	return nil
}

// voiceoverAdelayMs returns the `adelay` millisecond value for one
// narration placement's audio, rebased so that t=0 lines up with the
// rendered output's own start rather than the original project timeline.
func voiceoverAdelayMs(pl compositor.SegmentPlacement, videoStartOffset float64) int {
	return int(adjustedTimelineStart(pl.TimelineStart, videoStartOffset) * 1000)
}
