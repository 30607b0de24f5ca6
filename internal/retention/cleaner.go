// Package retention periodically removes finished render output and
// scratch temp files older than the configured retention window, so a
// long-running server doesn't accumulate every export it has ever
// produced on local disk.
package retention

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// Cleaner sweeps the configured output and temp directories on an
// interval, deleting anything older than RetentionDays.
type Cleaner struct {
	cfg *config.Config
	log logger.Logger
}

func New(cfg *config.Config, log logger.Logger) *Cleaner {
	return &Cleaner{cfg: cfg, log: log.WithField("component", "retention")}
}

// Run blocks, sweeping on cfg.Storage.CleanupInterval until ctx is
// cancelled. A zero interval disables the cleaner entirely.
func (c *Cleaner) Run(ctx context.Context) {
	if c.cfg.Storage.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.cfg.Storage.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep runs one cleanup pass immediately.
func (c *Cleaner) Sweep() {
	cutoff := time.Now().AddDate(0, 0, -c.cfg.Storage.RetentionDays)

	for _, dir := range []string{c.cfg.Storage.OutputDir, c.cfg.Storage.TempDir} {
		if err := c.sweepDir(dir, cutoff); err != nil {
			c.log.WithError(err).Warnf("retention sweep failed for %s", dir)
		}
	}
}

func (c *Cleaner) sweepDir(dir string, cutoff time.Time) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return err
	}

	deleted := 0
	for _, match := range matches {
		info, err := os.Lstat(match)
		if err != nil || info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(match); err != nil {
				c.log.Warnf("failed to delete %s: %v", match, err)
				continue
			}
			deleted++
		}
	}

	if deleted > 0 {
		c.log.Infof("deleted %d expired files from %s", deleted, dir)
	}
	return nil
}
