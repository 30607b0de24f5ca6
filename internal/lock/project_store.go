package lock

import (
	"context"
	"encoding/json"
	"os"
	"time"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
)

// WithProjectLock acquires the project's advisory lock, runs fn against the
// freshly-read project, and if fn returns a non-nil project writes it back
// atomically (tmp file + rename) before releasing the lock. fn returning a
// nil project with a nil error is treated as a read-only operation.
func WithProjectLock(ctx context.Context, projectPath string, timeout time.Duration, fn func(*models.Project) (*models.Project, error)) error {
	l, err := Acquire(ctx, projectPath, timeout)
	if err != nil {
		return err
	}
	defer l.Unlock()

	project, err := readProject(projectPath)
	if err != nil {
		return err
	}

	updated, err := fn(project)
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}

	return writeProjectAtomic(projectPath, updated)
}

// ReadProject reads a project file without acquiring its lock, for
// call sites that only need an informational snapshot (e.g. the
// POST /export/start response's bgm_tracks summary) rather than a
// consistent read/modify/write cycle.
func ReadProject(path string) (*models.Project, error) {
	return readProject(path)
}

func readProject(path string) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rerrors.MissingInput("project", path)
	}
	var project models.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, rerrors.InvalidInput("project file is not valid JSON: " + err.Error())
	}
	return &project, nil
}

// writeProjectAtomic writes project.json.tmp then renames it into place, so
// a crash mid-write never leaves a partially-written project file (§5).
func writeProjectAtomic(path string, project *models.Project) error {
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return rerrors.InternalError(err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return rerrors.InternalError(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return rerrors.InternalError(err)
	}
	return nil
}
