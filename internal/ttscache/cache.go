// Package ttscache is the content-addressed store of narration audio +
// subtitle pairs described in §4.3. It never performs speech synthesis
// itself — that's delegated to an external Provider — but owns fingerprint
// computation, on-disk layout, and coalescing concurrent builds of the same
// fingerprint into a single synthesis call.
package ttscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/subtitle"
	"github.com/activadee/videocraft-render/internal/toolchain"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// Request is the tuple that determines a narration's fingerprint (§4.3).
type Request struct {
	Text          string
	VoiceID       string
	Language      string
	Rate          float64
	Volume        float64
	Pitch         float64
	VoiceSampleID string
}

// Result is the pair of cached artifact paths returned on hit or after a
// successful build.
type Result struct {
	AudioPath    string
	SubtitlePath string
}

// Provider is the external TTS engine's synthesis contract (§6). It is a
// black box from the cache's point of view: given a request it returns raw
// audio bytes and, optionally, word-level cues the cache can turn into a
// subtitle file directly instead of re-deriving one from duration alone.
type Provider interface {
	Synthesize(ctx context.Context, req Request) (audio []byte, cues []subtitle.Cue, err error)
}

// Cache coordinates fingerprint lookup, coalesced synthesis, and fallback
// subtitle derivation.
type Cache struct {
	dir      string
	provider Provider
	tc       *toolchain.Adapter
	log      logger.Logger
	group    singleflight.Group
}

func New(dir string, provider Provider, tc *toolchain.Adapter, log logger.Logger) *Cache {
	return &Cache{dir: dir, provider: provider, tc: tc, log: log.WithField("component", "ttscache")}
}

// Fingerprint computes the stable content-address of a request.
func Fingerprint(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%f\x00%f\x00%f\x00%s",
		req.Text, req.VoiceID, req.Language, req.Rate, req.Volume, req.Pitch, req.VoiceSampleID)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) paths(fingerprint string) (audioPath, subtitlePath string) {
	prefix := fingerprint[:2]
	dir := filepath.Join(c.dir, prefix)
	return filepath.Join(dir, fingerprint+".mp3"), filepath.Join(dir, fingerprint+".srt")
}

// Get returns the cached pair for req, synthesizing it if necessary.
// Concurrent Get calls for the same fingerprint within this process share a
// single synthesis call (golang.org/x/sync/singleflight); cross-process
// races are resolved by filesystem existence at write time — the loser of
// a race simply re-reads the winner's files.
func (c *Cache) Get(ctx context.Context, req Request) (Result, error) {
	fingerprint := Fingerprint(req)
	audioPath, subtitlePath := c.paths(fingerprint)

	if fileExists(audioPath) {
		if !fileExists(subtitlePath) {
			if err := c.rederiveSubtitle(ctx, req, audioPath, subtitlePath); err != nil {
				return Result{}, err
			}
		}
		return Result{AudioPath: audioPath, SubtitlePath: subtitlePath}, nil
	}

	v, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		return c.build(ctx, req, fingerprint, audioPath, subtitlePath)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (c *Cache) build(ctx context.Context, req Request, fingerprint, audioPath, subtitlePath string) (Result, error) {
	// Another process may have won the race between our existence check and
	// now; re-check before calling the external engine.
	if fileExists(audioPath) && fileExists(subtitlePath) {
		return Result{AudioPath: audioPath, SubtitlePath: subtitlePath}, nil
	}

	audio, cues, err := c.provider.Synthesize(ctx, req)
	if err != nil {
		return Result{}, rerrors.New(rerrors.KindInternal, fmt.Sprintf("tts synthesis failed: %v", err), map[string]interface{}{"fingerprint": fingerprint})
	}

	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return Result{}, rerrors.InternalError(err)
	}
	if err := atomicWrite(audioPath, audio); err != nil {
		return Result{}, rerrors.InternalError(err)
	}

	if len(cues) > 0 {
		if err := atomicWrite(subtitlePath, []byte(subtitle.WriteSRT(cues))); err != nil {
			return Result{}, rerrors.InternalError(err)
		}
	} else if err := c.rederiveSubtitle(ctx, req, audioPath, subtitlePath); err != nil {
		return Result{}, err
	}

	return Result{AudioPath: audioPath, SubtitlePath: subtitlePath}, nil
}

// rederiveSubtitle synthesizes approximate, evenly-spaced cues from the
// audio's probed duration when a cache entry has audio but no subtitle
// (older entries, or a provider that returned no cues), per §4.3.
func (c *Cache) rederiveSubtitle(ctx context.Context, req Request, audioPath, subtitlePath string) error {
	duration, ok, err := c.tc.ProbeDuration(ctx, audioPath)
	if err != nil || !ok || duration <= 0 {
		duration = estimateDurationFromText(req.Text)
	}

	cues := evenlySpacedCues(req.Text, time.Duration(duration*float64(time.Second)))
	return atomicWrite(subtitlePath, []byte(subtitle.WriteSRT(cues)))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
