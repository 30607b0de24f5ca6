package providers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// freeTiers lists the user tiers that require a watermark overlay (§4.5:
// "If watermarking fails for a tier that requires it, the entire export
// fails"). Paid tiers never call into WatermarkClient.Overlay at all.
var freeTiers = map[string]bool{
	"free": true,
	"":     true, // unauthenticated/unspecified tier is treated as free
}

// WatermarkClient implements export.WatermarkProvider against an external
// overlay service: it uploads the combined file and writes back whatever
// the service returns.
type WatermarkClient struct {
	endpoint string
	client   *http.Client
	log      logger.Logger
}

func NewWatermarkClient(endpoint string, timeout time.Duration, log logger.Logger) *WatermarkClient {
	return &WatermarkClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log.WithField("component", "watermark_client"),
	}
}

// Required implements export.WatermarkProvider.
func (c *WatermarkClient) Required(userTier string) bool {
	return freeTiers[userTier]
}

// Overlay implements export.WatermarkProvider: posts inputPath's bytes as a
// multipart upload, streams the watermarked response body to outputPath.
func (c *WatermarkClient) Overlay(ctx context.Context, inputPath, outputPath, userTier string) error {
	if c.endpoint == "" {
		return fmt.Errorf("watermark provider not configured (external.watermark_endpoint unset)")
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return rerrors.MissingInput("watermark source", inputPath)
	}
	defer in.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, werr := mw.CreateFormFile("video", "input.mp4")
		if werr == nil {
			_, werr = io.Copy(part, in)
		}
		mw.WriteField("user_tier", userTier)
		mw.Close()
		pw.CloseWithError(werr)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("watermark service returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}
