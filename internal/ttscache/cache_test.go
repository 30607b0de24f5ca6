package ttscache

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/internal/subtitle"
	"github.com/activadee/videocraft-render/internal/toolchain"
	"github.com/activadee/videocraft-render/pkg/logger"
)

type fakeProvider struct {
	calls int32
	cues  []subtitle.Cue
}

func (f *fakeProvider) Synthesize(ctx context.Context, req Request) ([]byte, []subtitle.Cue, error) {
	atomic.AddInt32(&f.calls, 1)
	return []byte("fake-mp3-bytes"), f.cues, nil
}

func newTestCache(t *testing.T, provider Provider) *Cache {
	dir := t.TempDir()
	tc := toolchain.New(&config.Config{Toolchain: config.ToolchainConfig{ProbePath: "ffprobe-does-not-exist"}}, logger.New("error"))
	return New(dir, provider, tc, logger.New("error"))
}

func TestFingerprint_StableAndSensitiveToEveryField(t *testing.T) {
	base := Request{Text: "hello", VoiceID: "v1", Language: "en", Rate: 1, Volume: 100, Pitch: 0}
	assert.Equal(t, Fingerprint(base), Fingerprint(base))

	variants := []Request{
		{Text: "goodbye", VoiceID: "v1", Language: "en", Rate: 1, Volume: 100, Pitch: 0},
		{Text: "hello", VoiceID: "v2", Language: "en", Rate: 1, Volume: 100, Pitch: 0},
		{Text: "hello", VoiceID: "v1", Language: "fr", Rate: 1, Volume: 100, Pitch: 0},
		{Text: "hello", VoiceID: "v1", Language: "en", Rate: 1.5, Volume: 100, Pitch: 0},
	}
	for _, v := range variants {
		assert.NotEqual(t, Fingerprint(base), Fingerprint(v))
	}
}

func TestCache_Get_WritesArtifactsOnMiss(t *testing.T) {
	provider := &fakeProvider{cues: []subtitle.Cue{}}
	cache := newTestCache(t, provider)

	req := Request{Text: "hello there", VoiceID: "v1", Language: "en", Rate: 1, Volume: 100}
	result, err := cache.Get(context.Background(), req)
	require.NoError(t, err)
	assert.FileExists(t, result.AudioPath)
	assert.FileExists(t, result.SubtitlePath)
	assert.Equal(t, int32(1), provider.calls)
}

func TestCache_Get_HitsCacheWithoutCallingProviderAgain(t *testing.T) {
	provider := &fakeProvider{cues: []subtitle.Cue{}}
	cache := newTestCache(t, provider)
	req := Request{Text: "hello there", VoiceID: "v1", Language: "en", Rate: 1, Volume: 100}

	first, err := cache.Get(context.Background(), req)
	require.NoError(t, err)

	second, err := cache.Get(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.AudioPath, second.AudioPath)
	assert.Equal(t, int32(1), provider.calls)
}

func TestCache_Get_CoalescesConcurrentIdenticalRequests(t *testing.T) {
	provider := &fakeProvider{cues: []subtitle.Cue{}}
	cache := newTestCache(t, provider)
	req := Request{Text: "concurrent text", VoiceID: "v1", Language: "en", Rate: 1, Volume: 100}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), provider.calls)
}

func TestPaths_ShardsByFingerprintPrefix(t *testing.T) {
	c := &Cache{dir: "/base"}
	fp := Fingerprint(Request{Text: "x"})
	audioPath, subtitlePath := c.paths(fp)
	assert.Equal(t, filepath.Join("/base", fp[:2], fp+".mp3"), audioPath)
	assert.Equal(t, filepath.Join("/base", fp[:2], fp+".srt"), subtitlePath)
}
