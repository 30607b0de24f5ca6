package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/activadee/videocraft-render/pkg/logger"
)

// workspace namespaces one job's temp files under <tmp>/export_<job_id>/ so
// two concurrent jobs never collide (§5, §6).
type workspace struct {
	dir string
}

func newWorkspace(tempDir, jobID string) *workspace {
	return &workspace{dir: filepath.Join(tempDir, fmt.Sprintf("export_%s", jobID))}
}

func (w *workspace) ensure() error {
	return os.MkdirAll(w.dir, 0o755)
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *workspace) removeAll() {
	_ = os.RemoveAll(w.dir)
}

// cleanupList is the job-scoped registry described in §4.5: every stage
// registers its temp files here, and the list is processed on every exit
// path regardless of success or failure.
type cleanupList struct {
	mu    sync.Mutex
	paths []string
}

func (c *cleanupList) register(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *cleanupList) run(log logger.Logger) {
	c.mu.Lock()
	paths := append([]string(nil), c.paths...)
	c.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.WithField("path", p).Warnf("cleanup: failed to remove temp file: %v", err)
		}
	}
}
