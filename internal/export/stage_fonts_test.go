package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

type fakeFontProvider struct {
	installed map[string]bool
	calls     []string
}

func (f *fakeFontProvider) EnsureFont(ctx context.Context, family string) (bool, error) {
	f.calls = append(f.calls, family)
	return f.installed[family], nil
}

func TestRunFonts_NilProviderIsNoop(t *testing.T) {
	p := &Pipeline{fonts: nil}
	st := &runState{opts: Options{IncludeSubtitles: true}}

	require.NoError(t, p.runFonts(context.Background(), st, nil))
}

func TestRunFonts_SubtitlesDisabledSkipsEntirely(t *testing.T) {
	provider := &fakeFontProvider{}
	p := &Pipeline{fonts: provider}
	st := &runState{opts: Options{IncludeSubtitles: false}}

	require.NoError(t, p.runFonts(context.Background(), st, nil))
	assert.Empty(t, provider.calls)
}

func TestRunFonts_DedupesByFontFamilyAndWarnsOnMissing(t *testing.T) {
	provider := &fakeFontProvider{installed: map[string]bool{"Arial": true}}
	p := &Pipeline{fonts: provider}
	st := &runState{
		opts: Options{
			IncludeSubtitles: true,
			Project: &models.Project{
				GenericSegments: []models.NarrationSegment{
					{ID: "s1", Style: models.SubtitleStyle{Font: "Arial"}},
					{ID: "s2", Style: models.SubtitleStyle{Font: "Arial"}},
					{ID: "s3", Style: models.SubtitleStyle{Font: "Comic Sans"}},
				},
			},
		},
	}

	require.NoError(t, p.runFonts(context.Background(), st, nil))
	assert.Equal(t, []string{"Arial", "Comic Sans"}, provider.calls)
	assert.Len(t, st.warnings, 1)
	assert.Contains(t, st.warnings[0], "Comic Sans")
}
