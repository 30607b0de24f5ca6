package orchestrator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/activadee/videocraft-render/internal/config"
	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// jobEntry is the orchestrator's live, mutable record for one job. Manager
// hands out *copies* of the embedded models.Job (via GetJob) so external
// callers never observe or cause a data race on the live instance (§4.7).
type jobEntry struct {
	mu   sync.Mutex
	job  models.Job
	hub  *hub
	proc WorkerProcess

	cancelWorker context.CancelFunc
	lastActivity atomic.Int64 // unix nanos, for the stdout inactivity watchdog
}

// Manager is the Job Orchestrator (§4.7): per-job state, worker process
// lifecycle, and progress fan-out to subscribed duplex channels.
type Manager struct {
	cfg      *config.Config
	log      logger.Logger
	launcher Launcher

	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

func New(cfg *config.Config, log logger.Logger, launcher Launcher) *Manager {
	return &Manager{
		cfg:      cfg,
		log:      log.WithField("component", "orchestrator"),
		launcher: launcher,
		jobs:     make(map[string]*jobEntry),
	}
}

// Start allocates a job id, resolves the output path, enqueues the worker,
// and returns immediately (§4.7 "start(request) -> job_id").
func (m *Manager) Start(req models.RenderRequest) (string, error) {
	if req.ProjectName == "" {
		return "", rerrors.InvalidInput("project_name is required")
	}

	jobID := newJobID()
	outputPath := resolveOutputPath(m.cfg.Storage.OutputDir, req.Config, jobID)
	now := time.Now()

	entry := &jobEntry{
		hub: newHub(),
		job: models.Job{
			ID:         jobID,
			Status:     models.JobStatusQueued,
			Request:    req,
			OutputPath: outputPath,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}

	m.mu.Lock()
	m.jobs[jobID] = entry
	m.mu.Unlock()

	go m.runWorker(jobID, entry)

	return jobID, nil
}

// List returns a point-in-time snapshot of every job the orchestrator
// currently knows about, newest first, backing GET /export/queue (§6).
func (m *Manager) List() []models.Job {
	m.mu.RLock()
	entries := make([]*jobEntry, 0, len(m.jobs))
	for _, entry := range m.jobs {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	jobs := make([]models.Job, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		jobs = append(jobs, entry.job)
		entry.mu.Unlock()
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

// GetJob returns a point-in-time copy of a job's state.
func (m *Manager) GetJob(jobID string) (*models.Job, error) {
	entry, ok := m.lookup(jobID)
	if !ok {
		return nil, rerrors.JobNotFound(jobID)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	snapshot := entry.job
	return &snapshot, nil
}

// Subscribe attaches a duplex channel to a job's progress stream (§4.7
// "subscribe(job_id)"). The returned snapshot is delivered separately so
// a late subscriber sees current state without replaying history.
func (m *Manager) Subscribe(jobID string) (events <-chan models.ProgressEvent, snapshot *models.Job, unsubscribe func(), err error) {
	entry, ok := m.lookup(jobID)
	if !ok {
		return nil, nil, nil, rerrors.JobNotFound(jobID)
	}

	ch, unsub := entry.hub.subscribe()

	entry.mu.Lock()
	snap := entry.job
	entry.mu.Unlock()

	return ch, &snap, unsub, nil
}

// Cancel terminates the worker and marks the job failed (§4.7
// "cancel(job_id): SIGTERM, wait 500ms, SIGKILL; mark failed").
func (m *Manager) Cancel(jobID string) error {
	entry, ok := m.lookup(jobID)
	if !ok {
		return rerrors.JobNotFound(jobID)
	}

	entry.mu.Lock()
	status := entry.job.Status
	proc := entry.proc
	cancelWorker := entry.cancelWorker
	entry.mu.Unlock()

	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		return rerrors.InvalidInput("cannot cancel a job that has already finished")
	}

	// Mark the job failed before signalling the worker, so runWorker sees it
	// as already finished when the worker's stdout closes.
	m.finish(entry, models.JobStatusFailed, rerrors.Cancelled().Message)

	if proc != nil {
		_ = proc.Terminate()
		done := make(chan struct{})
		go func() {
			_ = proc.Wait()
			close(done)
		}()
		if !waitForExitOrGrace(done, m.cfg.Job.CancelGracePeriod) {
			_ = proc.Kill()
		}
	}
	if cancelWorker != nil {
		cancelWorker()
	}

	return nil
}

func (m *Manager) lookup(jobID string) (*jobEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.jobs[jobID]
	return entry, ok
}

// runWorker launches the render worker subprocess and drives it to
// completion, updating job state and broadcasting every parsed stdout
// record as it arrives (§4.7's ordering guarantee: emission order
// preserved per subscriber).
func (m *Manager) runWorker(jobID string, entry *jobEntry) {
	ctx, cancel := context.WithCancel(context.Background())
	entry.mu.Lock()
	entry.cancelWorker = cancel
	entry.mu.Unlock()
	defer cancel()

	stderrLogPath := filepath.Join(m.cfg.Storage.TempDir, fmt.Sprintf("worker_%s.stderr.log", jobID))

	proc, err := m.launcher.Launch(ctx, entry.job.Request, entry.job.OutputPath, stderrLogPath)
	if err != nil {
		m.finish(entry, models.JobStatusFailed, err.Error())
		return
	}

	entry.mu.Lock()
	entry.proc = proc
	started := time.Now()
	entry.job.Status = models.JobStatusProcessing
	entry.job.StartedAt = &started
	entry.job.UpdatedAt = started
	entry.mu.Unlock()
	entry.lastActivity.Store(time.Now().UnixNano())

	watchdogDone := make(chan struct{})
	go m.stdoutWatchdog(entry, proc, watchdogDone)

	m.readProgress(entry, proc)
	close(watchdogDone)

	waitErr := proc.Wait()

	entry.mu.Lock()
	alreadyFinished := entry.job.Status == models.JobStatusCompleted || entry.job.Status == models.JobStatusFailed
	entry.mu.Unlock()
	if alreadyFinished {
		return
	}

	if waitErr != nil {
		m.finish(entry, models.JobStatusFailed, waitErr.Error())
		return
	}
	m.finish(entry, models.JobStatusCompleted, "")
}

// readProgress reads the worker's stdout line by line, parsing each as a
// models.ProgressEvent and applying it to job state and the hub.
func (m *Manager) readProgress(entry *jobEntry, proc WorkerProcess) {
	scanner := bufio.NewScanner(proc.Stdout())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		entry.lastActivity.Store(time.Now().UnixNano())

		var ev models.ProgressEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			m.log.WithField("job_id", entry.job.ID).Warnf("malformed worker stdout line: %v", err)
			continue
		}

		m.applyProgress(entry, ev)

		if ev.Type == "error" {
			m.finish(entry, models.JobStatusFailed, ev.Message)
			return
		}
	}
}

// applyProgress updates job state from one worker stdout record. A
// negative ev.Progress is never valid on the wire (§5 progress is
// documented 0..100, monotonic non-decreasing); rather than let it
// regress entry.job.Progress, the last known value is kept and only the
// stage/detail move forward. The broadcast still carries ev as received so
// subscribers see whatever detail-only refresh the worker sent.
func (m *Manager) applyProgress(entry *jobEntry, ev models.ProgressEvent) {
	entry.mu.Lock()
	entry.job.Stage = ev.Stage
	if ev.Progress >= 0 && ev.Progress > entry.job.Progress {
		entry.job.Progress = ev.Progress
	}
	entry.job.UpdatedAt = time.Now()
	entry.mu.Unlock()

	entry.hub.broadcast(ev)
}

// stdoutWatchdog kills the worker if its stdout goes silent for longer
// than the configured inactivity timeout (§4.7 "1-hour inactivity
// timeout"), so a hung subprocess never pins a job in "processing" forever.
func (m *Manager) stdoutWatchdog(entry *jobEntry, proc WorkerProcess, done <-chan struct{}) {
	timeout := m.cfg.Job.StdoutIdleTimeout
	if timeout <= 0 {
		return
	}
	ticker := time.NewTicker(timeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			last := time.Unix(0, entry.lastActivity.Load())
			if time.Since(last) > timeout {
				m.log.WithField("job_id", entry.job.ID).Warnf("worker stdout idle for %s, killing", timeout)
				_ = proc.Kill()
				return
			}
		}
	}
}

func (m *Manager) finish(entry *jobEntry, status models.JobStatus, errMsg string) {
	entry.mu.Lock()
	if entry.job.Status == models.JobStatusCompleted || entry.job.Status == models.JobStatusFailed {
		entry.mu.Unlock()
		return
	}
	now := time.Now()
	entry.job.Status = status
	entry.job.Error = errMsg
	entry.job.UpdatedAt = now
	entry.job.CompletedAt = &now
	if status == models.JobStatusCompleted {
		entry.job.Progress = 100
	}
	progress := entry.job.Progress
	entry.mu.Unlock()

	entry.hub.broadcast(models.ProgressEvent{
		Type:     progressEventTypeFor(status),
		Stage:    "done",
		Message:  errMsg,
		Progress: progress,
	})
	entry.hub.closeAll()
}

func progressEventTypeFor(status models.JobStatus) string {
	if status == models.JobStatusFailed {
		return "error"
	}
	return "progress"
}
