package export

import (
	"context"

	"github.com/activadee/videocraft-render/internal/ttscache"
)

// runTTS fills in audio_path/subtitle_path for every narration segment that
// doesn't already have cached audio, via the TTS Cache (§4.3, §4.5 "tts").
// Segments that already have audio but no subtitle get one re-derived from
// the audio's duration — ttscache.Cache.Get handles this fallback itself.
func (p *Pipeline) runTTS(ctx context.Context, st *runState, onProgress OnProgress) error {
	segments := st.opts.Project.GenericSegments
	for i := range segments {
		seg := &segments[i]
		if seg.Text == "" {
			continue
		}
		if seg.AudioPath != "" && (seg.SubtitlePath != "" || !seg.SubtitleEnabled) {
			continue
		}

		result, err := p.tts.Get(ctx, ttscache.Request{
			Text:          seg.Text,
			VoiceID:       seg.VoiceID,
			Language:      seg.Language,
			Rate:          seg.Rate,
			Volume:        seg.Volume,
			Pitch:         seg.Pitch,
			VoiceSampleID: seg.VoiceSampleID,
		})
		if err != nil {
			return err
		}

		if seg.AudioPath == "" {
			seg.AudioPath = result.AudioPath
		}
		if seg.SubtitleEnabled && seg.SubtitlePath == "" {
			seg.SubtitlePath = result.SubtitlePath
		}
	}

	return nil
}
