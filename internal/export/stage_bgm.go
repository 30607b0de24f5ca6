package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/activadee/videocraft-render/internal/compositor"
	"github.com/activadee/videocraft-render/internal/toolchain"
)

// runBGM mixes every placed background-music track onto the output,
// looping and fading as the compositor resolved (§4.5 "bgm"). Projects
// with no BGM tracks pass the subtitled output straight through.
func (p *Pipeline) runBGM(ctx context.Context, st *runState, onProgress OnProgress) error {
	tracks := st.opts.Composited.BGMPlacements
	if len(tracks) == 0 {
		st.bgmPath = st.subtitlesPath
		return nil
	}

	outPath := st.ws.path("with_bgm.mp4")
	args := []string{"-y", "-i", st.subtitlesPath}

	var mixInputs []string
	var filters []string
	mixInputs = append(mixInputs, "[0:a]")

	videoStartOffset := st.videoStartOffset()
	nextInput := 1
	for i, track := range tracks {
		args = append(args, "-i", track.Path)
		streamIdx := nextInput
		nextInput++

		var chain []string
		if track.NeedsLoop {
			chain = append(chain, fmt.Sprintf("aloop=loop=%d:size=2e9", track.LoopCount-1))
		}
		chain = append(chain, toolchain.VolumeToDB(track.Volume))
		if track.FadeIn > 0 {
			chain = append(chain, fmt.Sprintf("afade=t=in:st=0:d=%f", track.FadeIn))
		}
		if track.FadeOut > 0 {
			fadeStart := track.Duration() - track.FadeOut
			if fadeStart < 0 {
				fadeStart = 0
			}
			chain = append(chain, fmt.Sprintf("afade=t=out:st=%f:d=%f", fadeStart, track.FadeOut))
		}
		chain = append(chain, fmt.Sprintf("atrim=duration=%f", track.Duration()))
		chain = append(chain, "asetpts=PTS-STARTPTS")

		delayMs := bgmAdelayMs(track, videoStartOffset)
		label := fmt.Sprintf("bgm%d", i)
		filters = append(filters, fmt.Sprintf(
			"[%d:a]%s,adelay=%d|%d[%s]",
			streamIdx, strings.Join(chain, ","),
			delayMs, delayMs, label,
		))
		mixInputs = append(mixInputs, fmt.Sprintf("[%s]", label))
	}

	filters = append(filters, fmt.Sprintf(
		"%samix=inputs=%d:duration=first[aout]",
		strings.Join(mixInputs, ""), len(mixInputs),
	))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "0:v", "-map", "[aout]",
		"-c:v", "copy", "-c:a", "aac",
		outPath,
	)

	if _, _, err := p.tc.Run(ctx, args, 0, progressAdapter(onProgress, StageBGM), p.cfg.Toolchain.BGMMixTimeout); err != nil {
		return err
	}

	st.cl.register(outPath)
	st.bgmPath = outPath
	return nil
}

// bgmAdelayMs returns the `adelay` millisecond value for one BGM track,
// rebased so that t=0 lines up with the rendered output's own start
// rather than the original project timeline.
func bgmAdelayMs(track compositor.BGMPlacement, videoStartOffset float64) int {
	return int(adjustedTimelineStart(track.TimelineStart+track.AudioOffset, videoStartOffset) * 1000)
}
