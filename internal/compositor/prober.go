package compositor

import (
	"context"

	"github.com/activadee/videocraft-render/internal/toolchain"
)

// toolchainProber adapts *toolchain.Adapter to VideoProber.
type toolchainProber struct {
	tc *toolchain.Adapter
}

// NewToolchainProber wraps the real toolchain adapter for production use.
func NewToolchainProber(tc *toolchain.Adapter) VideoProber {
	return &toolchainProber{tc: tc}
}

func (p *toolchainProber) ProbeDuration(ctx context.Context, path string) (float64, bool, error) {
	return p.tc.ProbeDuration(ctx, path)
}

func (p *toolchainProber) ProbeVideoInfo(ctx context.Context, path string) (VideoInfo, error) {
	info, err := p.tc.ProbeVideoInfo(ctx, path)
	if err != nil {
		return VideoInfo{}, err
	}
	return VideoInfo{Width: info.Width, Height: info.Height, FPS: info.FPS, Codec: info.Codec, PixFmt: info.PixFmt}, nil
}

func (p *toolchainProber) HasAudio(ctx context.Context, path string) (bool, error) {
	return p.tc.HasAudio(ctx, path)
}
