package orchestrator

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
)

// WorkerProcess is the orchestrator's view of a running render worker
// subprocess (§4.7 "process_handle").
type WorkerProcess interface {
	Stdout() io.Reader
	Wait() error
	Terminate() error
	Kill() error
}

// Launcher starts a render worker process for one job. Exists as an
// interface so the manager's tests never actually fork a subprocess.
type Launcher interface {
	Launch(ctx context.Context, req models.RenderRequest, outputPath, stderrLogPath string) (WorkerProcess, error)
}

// execLauncher spawns the cmd/renderworker binary with the CLI argument
// order from §4.6: project_name, output_path, quality, include_subtitles,
// export_type, optional video_id, optional bgm_path, user_tier. Stderr is
// redirected to a log file, never a pipe, so a stalled reader cannot
// deadlock the worker (same rule toolchain.Adapter.Run follows for ffmpeg).
type execLauncher struct {
	binaryPath string
}

func NewExecLauncher(binaryPath string) Launcher {
	return &execLauncher{binaryPath: binaryPath}
}

func (l *execLauncher) Launch(ctx context.Context, req models.RenderRequest, outputPath, stderrLogPath string) (WorkerProcess, error) {
	optional := func(s string) string {
		if s == "" {
			return "None"
		}
		return s
	}
	args := []string{
		req.ProjectName,
		outputPath,
		string(req.Config.Quality),
		strconv.FormatBool(req.Config.IncludeSubtitles),
		string(req.ExportType),
		optional(req.VideoID),
		optional(req.Config.BackgroundMusicPath),
		req.UserTier,
	}

	cmd := exec.CommandContext(ctx, l.binaryPath, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	stderrFile, err := os.Create(stderrLogPath)
	if err != nil {
		return nil, rerrors.InternalError(err)
	}
	cmd.Stderr = stderrFile

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stderrFile.Close()
		return nil, rerrors.InternalError(err)
	}

	if err := cmd.Start(); err != nil {
		stderrFile.Close()
		return nil, rerrors.ToolchainFailure(err, "")
	}

	return &execWorkerProcess{cmd: cmd, stdout: stdout, stderrFile: stderrFile}, nil
}

type execWorkerProcess struct {
	cmd        *exec.Cmd
	stdout     io.Reader
	stderrFile *os.File
}

func (w *execWorkerProcess) Stdout() io.Reader { return w.stdout }

func (w *execWorkerProcess) Wait() error {
	defer w.stderrFile.Close()
	return w.cmd.Wait()
}

// Terminate sends SIGTERM to the worker's process group.
func (w *execWorkerProcess) Terminate() error {
	if w.cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-w.cmd.Process.Pid, syscall.SIGTERM)
}

// Kill sends SIGKILL to the worker's process group, used after the
// cancellation grace period elapses (§4.7 "SIGTERM, wait 500ms, SIGKILL").
func (w *execWorkerProcess) Kill() error {
	if w.cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-w.cmd.Process.Pid, syscall.SIGKILL)
}

// waitForExitOrGrace blocks until the process exits or the grace period
// elapses, whichever comes first, returning true if it exited on its own.
func waitForExitOrGrace(done <-chan struct{}, grace time.Duration) bool {
	select {
	case <-done:
		return true
	case <-time.After(grace):
		return false
	}
}
