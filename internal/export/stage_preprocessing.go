package export

import (
	"context"
	"fmt"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

// runPreprocessing ensures every video layer the compositor touches has an
// audio stream: layers with none get a silent stereo track synthesized
// alongside the original via a null audio source generator (§4.5
// "preprocessing"). The synthesized file is a workspace temp file cleaned
// up on every exit path; the original source_path is restored implicitly
// since runState only ever rewrites its own in-memory copy of the layer,
// never the caller's project.
func (p *Pipeline) runPreprocessing(ctx context.Context, st *runState, onProgress OnProgress) error {
	sampleRate := p.cfg.Mixing.AudioSampleRate
	if sampleRate == 0 {
		sampleRate = 48000
	}

	project := *st.opts.Project
	project.Videos = append([]models.VideoLayer(nil), st.opts.Project.Videos...)
	st.opts.Project = &project

	for i := range st.opts.Project.Videos {
		v := &st.opts.Project.Videos[i]
		if v.HasAudio {
			continue
		}

		silentPath := st.ws.path(fmt.Sprintf("silent_audio_%s.mp4", v.ID))
		args := []string{
			"-y",
			"-i", v.SourcePath,
			"-f", "lavfi", "-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", sampleRate),
			"-map", "0:v", "-map", "1:a",
			"-c:v", "copy", "-c:a", "aac", "-shortest",
			silentPath,
		}

		if _, _, err := p.tc.Run(ctx, args, 0, nil, p.cfg.Toolchain.SegmentTimeout); err != nil {
			return err
		}

		st.cl.register(silentPath)
		v.SourcePath = silentPath
		v.HasAudio = true
		st.primaryAudioAdded = true
	}

	return nil
}
