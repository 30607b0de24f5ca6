package toolchain

import (
	"context"
	"os/exec"
)

// hwEncoderCandidates is tried in priority order; the first that survives a
// ~1-frame dummy encode wins. Software x264 is always the fallback.
var hwEncoderCandidates = []string{
	"h264_videotoolbox", // macOS
	"h264_nvenc",        // NVIDIA
	"h264_qsv",          // Intel Quick Sync
	"h264_vaapi",        // VA-API (Linux)
}

// DetectHardwareEncoder returns the first working hardware encoder id, or
// "libx264" when none is usable. The probe runs at most once per process
// lifetime (sync.Once) since it shells out and is not expected to change.
func (a *Adapter) DetectHardwareEncoder(ctx context.Context) string {
	a.hwOnce.Do(func() {
		if preferred := a.cfg.Toolchain.PreferredHWEncoder; preferred != "" {
			if a.encoderWorks(ctx, preferred) {
				a.hwEncoder = preferred
				a.hwDetected = true
				return
			}
		}
		for _, candidate := range hwEncoderCandidates {
			if a.encoderWorks(ctx, candidate) {
				a.hwEncoder = candidate
				a.hwDetected = true
				return
			}
		}
		a.hwEncoder = "libx264"
		a.hwDetected = true
	})
	return a.hwEncoder
}

// encoderWorks runs a tiny synthetic encode (1 frame, color source) with the
// candidate encoder under a short timeout. A nonzero exit or a timeout both
// count as "not available" — this never surfaces as a ToolchainFailure since
// detection failure is an expected, non-fatal outcome for most encoders.
func (a *Adapter) encoderWorks(ctx context.Context, encoder string) bool {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Toolchain.HWEncoderTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.cfg.Toolchain.BinaryPath,
		"-v", "error", "-f", "lavfi", "-i", "color=c=black:s=64x64:d=0.04",
		"-frames:v", "1", "-c:v", encoder, "-f", "null", "-")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// QualityPreset names the encoder/bitrate/preset tuple for one quality tier.
type QualityPreset struct {
	VideoCodec   string
	CRFOrBitrate string // CRF value for software encoders, bitrate for hardware
	EncoderPreset string
	AudioBitrate string
	PixFmt       string
}

// qualityTable maps (quality, hardware-encoder-in-use) to concrete encoder
// parameters. Hardware encoders take a bitrate target; software x264 takes
// a CRF value, matching how each encoder family expects to be tuned.
func (a *Adapter) QualityPresetFor(quality string, encoder string) QualityPreset {
	isHW := encoder != "" && encoder != "libx264"

	switch quality {
	case "lossless":
		if isHW {
			return QualityPreset{VideoCodec: encoder, CRFOrBitrate: "20M", EncoderPreset: "slow", AudioBitrate: "320k", PixFmt: "yuv420p"}
		}
		return QualityPreset{VideoCodec: "libx264", CRFOrBitrate: "0", EncoderPreset: "veryslow", AudioBitrate: "320k", PixFmt: "yuv420p"}
	case "balanced":
		if isHW {
			return QualityPreset{VideoCodec: encoder, CRFOrBitrate: "4M", EncoderPreset: "fast", AudioBitrate: "128k", PixFmt: "yuv420p"}
		}
		return QualityPreset{VideoCodec: "libx264", CRFOrBitrate: "26", EncoderPreset: "fast", AudioBitrate: "128k", PixFmt: "yuv420p"}
	case "high":
		fallthrough
	default:
		if isHW {
			return QualityPreset{VideoCodec: encoder, CRFOrBitrate: "8M", EncoderPreset: "medium", AudioBitrate: "192k", PixFmt: "yuv420p"}
		}
		return QualityPreset{VideoCodec: "libx264", CRFOrBitrate: "20", EncoderPreset: "medium", AudioBitrate: "192k", PixFmt: "yuv420p"}
	}
}
