package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/activadee/videocraft-render/pkg/logger"
)

// FontClient implements export.FontProvider against the external Font
// Provider named in §6: ensure_font(family_name) -> ok|missing. A missing
// endpoint makes every call report "missing" rather than erroring, since
// §4.5 treats a font install failure as a warning, never fatal.
type FontClient struct {
	endpoint string
	client   *http.Client
	log      logger.Logger
}

func NewFontClient(endpoint string, timeout time.Duration, log logger.Logger) *FontClient {
	return &FontClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log.WithField("component", "font_client"),
	}
}

type ensureFontResponse struct {
	OK bool `json:"ok"`
}

// EnsureFont implements export.FontProvider. It never returns an error for
// ordinary "font unavailable" outcomes — only for unexpected transport
// failures, which the pipeline also treats as a warning (§4.5 "fonts").
func (c *FontClient) EnsureFont(ctx context.Context, family string) (bool, error) {
	if c.endpoint == "" {
		return false, nil
	}

	reqURL := fmt.Sprintf("%s?family=%s", c.endpoint, url.QueryEscape(family))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, http.NoBody)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warnf("font provider request failed for %q: %v", family, err)
		return false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warnf("font provider returned HTTP %d for %q", resp.StatusCode, family)
		return false, nil
	}

	var decoded ensureFontResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.log.Warnf("font provider response for %q was not valid JSON: %v", family, err)
		return false, nil
	}

	return decoded.OK, nil
}
