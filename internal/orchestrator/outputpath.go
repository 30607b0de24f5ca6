package orchestrator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

var (
	filenameNullByteRegex    = regexp.MustCompile(`\x00`)
	filenameControlCharRegex = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// resolveOutputPath sanitizes a user-provided output filename (§4.7
// "start(request): constructs output path, sanitising user-provided
// filename; merging in defaults") and joins it onto the configured output
// directory. A caller-provided absolute output_path always wins.
func resolveOutputPath(outputDir string, cfg models.RenderConfig, jobID string) string {
	if cfg.OutputPath != "" {
		return cfg.OutputPath
	}

	filename := sanitizeOutputFilename(cfg.OutputFilename)
	if filename == "" {
		filename = fmt.Sprintf("export_%s.mp4", jobID)
	}

	return filepath.Join(outputDir, filename)
}

// sanitizeOutputFilename removes control characters, keeps only the final
// path component (filepath.Base), which strips any directory traversal the
// caller-supplied name might carry, drops a leading dot, and appends
// ".mp4" when missing. It returns "" when nothing usable is left.
func sanitizeOutputFilename(name string) string {
	name = strings.TrimSpace(name)
	name = filenameNullByteRegex.ReplaceAllString(name, "")
	name = filenameControlCharRegex.ReplaceAllString(name, "")
	name = filepath.Base(name)
	name = strings.TrimPrefix(name, ".")

	if name == "" || name == "." || name == string(filepath.Separator) {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(name), ".mp4") {
		name += ".mp4"
	}
	return name
}

func newJobID() string {
	return uuid.New().String()
}
