package export

import (
	"context"
	"io"
	"os"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
)

// runWatermark applies the tier-gated watermark overlay, then moves the
// final artifact to opts.OutputPath (§4.5 "watermark"). A tier that
// requires a watermark fails the whole export on overlay failure
// (ErrorKind.WatermarkRequired) rather than shipping an unwatermarked
// video; a tier that doesn't require one skips the overlay entirely.
func (p *Pipeline) runWatermark(ctx context.Context, st *runState, onProgress OnProgress) error {
	src := st.bgmPath

	if p.watermark != nil && p.watermark.Required(st.opts.UserTier) {
		prewatermarkPath := src + ".prewatermark"
		if err := os.Rename(src, prewatermarkPath); err != nil {
			return rerrors.WatermarkRequired(err)
		}
		st.cl.register(prewatermarkPath)

		watermarkedPath := st.ws.path("watermarked.mp4")
		if err := p.watermark.Overlay(ctx, prewatermarkPath, watermarkedPath, st.opts.UserTier); err != nil {
			return rerrors.WatermarkRequired(err)
		}
		st.cl.register(watermarkedPath)
		src = watermarkedPath
	}

	if err := moveFile(src, st.opts.OutputPath); err != nil {
		return rerrors.InternalError(err)
	}

	st.finalPath = st.opts.OutputPath
	return nil
}

// moveFile renames when possible and falls back to a copy across
// filesystem boundaries (the workspace temp dir and the output dir are not
// guaranteed to share a device).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return os.Remove(src)
}
