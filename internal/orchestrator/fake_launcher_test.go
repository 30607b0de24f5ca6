package orchestrator

import (
	"context"
	"io"
	"sync"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

// fakeWorkerProcess is an in-memory WorkerProcess double: its stdout is
// whatever the test writes to the pipe, and Wait blocks until the writer
// closes it.
type fakeWorkerProcess struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu         sync.Mutex
	terminated bool
	killed     bool
}

func newFakeWorkerProcess() *fakeWorkerProcess {
	r, w := io.Pipe()
	return &fakeWorkerProcess{r: r, w: w}
}

func (f *fakeWorkerProcess) Stdout() io.Reader { return f.r }

func (f *fakeWorkerProcess) Wait() error {
	io.Copy(io.Discard, f.r)
	return nil
}

func (f *fakeWorkerProcess) Terminate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = true
	f.w.Close()
	return nil
}

func (f *fakeWorkerProcess) Kill() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = true
	f.w.Close()
	return nil
}

func (f *fakeWorkerProcess) writeLine(s string) {
	io.WriteString(f.w, s+"\n")
}

func (f *fakeWorkerProcess) close() {
	f.w.Close()
}

// fakeLauncher hands out pre-wired fakeWorkerProcesses so tests can drive
// a job's stdout directly instead of spawning a real subprocess.
type fakeLauncher struct {
	mu        sync.Mutex
	processes []*fakeWorkerProcess
	launchErr error
}

func (f *fakeLauncher) Launch(ctx context.Context, req models.RenderRequest, outputPath, stderrLogPath string) (WorkerProcess, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	proc := newFakeWorkerProcess()
	f.mu.Lock()
	f.processes = append(f.processes, proc)
	f.mu.Unlock()
	return proc, nil
}

func (f *fakeLauncher) last() *fakeWorkerProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processes[len(f.processes)-1]
}
