// Package providers implements the external-collaborator HTTP clients named
// in spec §6: TTS synthesis, font installation, watermark overlay. Each one
// is a thin JSON-over-HTTP façade the rest of the render core only ever
// sees through the narrow interface its consumer package declares
// (ttscache.Provider, export.FontProvider, export.WatermarkProvider).
package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/subtitle"
	"github.com/activadee/videocraft-render/internal/ttscache"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// ttsSynthesizeRequest/Response mirror the external TTS engine's
// synthesise(text, voice_id, language, rate, volume, pitch, voice_sample_id)
// -> (audio_bytes, subtitle_cues?) contract from §6. Audio comes back as a
// multipart-free base64 payload to keep the client a single POST+decode.
type ttsSynthesizeRequest struct {
	Text          string  `json:"text"`
	VoiceID       string  `json:"voice_id"`
	Language      string  `json:"language"`
	Rate          float64 `json:"rate"`
	Volume        float64 `json:"volume"`
	Pitch         float64 `json:"pitch"`
	VoiceSampleID string  `json:"voice_sample_id,omitempty"`
}

type ttsCue struct {
	StartMS int    `json:"start_ms"`
	EndMS   int    `json:"end_ms"`
	Text    string `json:"text"`
}

type ttsSynthesizeResponse struct {
	AudioBase64 string   `json:"audio_base64"`
	Cues        []ttsCue `json:"cues,omitempty"`
}

// TTSClient is an ttscache.Provider backed by an external HTTP synthesis
// engine. It carries no cache of its own — ttscache.Cache owns fingerprint
// lookup and coalescing; this type only ever performs the actual network
// call on a confirmed miss.
type TTSClient struct {
	endpoint string
	client   *http.Client
	log      logger.Logger
}

func NewTTSClient(endpoint string, timeout time.Duration, log logger.Logger) *TTSClient {
	return &TTSClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log.WithField("component", "tts_client"),
	}
}

// Synthesize implements ttscache.Provider.
func (c *TTSClient) Synthesize(ctx context.Context, req ttscache.Request) (audio []byte, cues []subtitle.Cue, err error) {
	if c.endpoint == "" {
		return nil, nil, rerrors.InternalError(fmt.Errorf("tts provider not configured (external.tts_endpoint unset)"))
	}

	body, err := json.Marshal(ttsSynthesizeRequest{
		Text: req.Text, VoiceID: req.VoiceID, Language: req.Language,
		Rate: req.Rate, Volume: req.Volume, Pitch: req.Pitch, VoiceSampleID: req.VoiceSampleID,
	})
	if err != nil {
		return nil, nil, rerrors.InternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, rerrors.InternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, rerrors.ToolchainFailure(err, "")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, rerrors.ToolchainFailure(err, "")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, rerrors.ToolchainFailure(fmt.Errorf("tts engine returned HTTP %d", resp.StatusCode), string(raw))
	}

	var decoded ttsSynthesizeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, nil, rerrors.ToolchainFailure(fmt.Errorf("decode tts response: %w", err), "")
	}

	audioBytes, err := decodeBase64(decoded.AudioBase64)
	if err != nil {
		return nil, nil, rerrors.ToolchainFailure(fmt.Errorf("decode tts audio payload: %w", err), "")
	}

	for _, cue := range decoded.Cues {
		cues = append(cues, subtitle.Cue{
			Start: time.Duration(cue.StartMS) * time.Millisecond,
			End:   time.Duration(cue.EndMS) * time.Millisecond,
			Text:  cue.Text,
		})
	}

	return audioBytes, cues, nil
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
