package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/internal/subtitle"
	"github.com/activadee/videocraft-render/internal/toolchain"
	"github.com/activadee/videocraft-render/internal/ttscache"
	"github.com/activadee/videocraft-render/pkg/logger"
)

type stubTTSProvider struct{}

func (stubTTSProvider) Synthesize(ctx context.Context, req ttscache.Request) ([]byte, []subtitle.Cue, error) {
	return []byte("fake-mp3-bytes"), nil, nil
}

func newTestPipelineForTTS(t *testing.T) *Pipeline {
	tc := toolchain.New(&config.Config{Toolchain: config.ToolchainConfig{ProbePath: "ffprobe-does-not-exist"}}, logger.New("error"))
	cache := ttscache.New(t.TempDir(), stubTTSProvider{}, tc, logger.New("error"))
	return &Pipeline{tts: cache}
}

func TestRunTTS_SkipsSegmentsWithoutTextOrAlreadyHavingAudio(t *testing.T) {
	p := newTestPipelineForTTS(t)
	st := &runState{
		opts: Options{
			Project: &models.Project{
				GenericSegments: []models.NarrationSegment{
					{ID: "s1", Text: ""},
					{ID: "s2", Text: "hello", AudioPath: "/already/there.mp3"},
				},
			},
		},
	}

	require.NoError(t, p.runTTS(context.Background(), st, nil))
	assert.Equal(t, "/already/there.mp3", st.opts.Project.GenericSegments[1].AudioPath)
}

func TestRunTTS_SynthesizesMissingAudioAndSubtitle(t *testing.T) {
	p := newTestPipelineForTTS(t)
	st := &runState{
		opts: Options{
			Project: &models.Project{
				GenericSegments: []models.NarrationSegment{
					{ID: "s1", Text: "hello there", VoiceID: "v1", Language: "en", SubtitleEnabled: true},
				},
			},
		},
	}

	require.NoError(t, p.runTTS(context.Background(), st, nil))
	seg := st.opts.Project.GenericSegments[0]
	assert.NotEmpty(t, seg.AudioPath)
	assert.NotEmpty(t, seg.SubtitlePath)
}
