// Package toolchain is the synchronous-in-spirit façade over the external
// encoder ("ffmpeg") and probe ("ffprobe") binaries: probing, hardware
// encoder selection, and progress-streamed invocation. Nothing above this
// package shells out directly.
package toolchain

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/activadee/videocraft-render/internal/config"
	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// VideoInfo is the probed shape of a source file (§4.1).
type VideoInfo struct {
	Width  int
	Height int
	FPS    float64
	Codec  string
	PixFmt string
}

// Progress is one parsed `-progress pipe:1` record.
type Progress struct {
	OutTimeMS int64
	Speed     float64
	FPS       float64
	Bitrate   string
	Stage     string // raw "progress=" value: continue | end
}

// OnProgress is invoked at most once per the adapter's configured interval.
type OnProgress func(Progress)

type Adapter struct {
	cfg *config.Config
	log logger.Logger

	hwOnce     sync.Once
	hwEncoder  string
	hwDetected bool
}

func New(cfg *config.Config, log logger.Logger) *Adapter {
	return &Adapter{cfg: cfg, log: log.WithField("component", "toolchain")}
}

// ProbeDuration returns the media duration in seconds, or ok=false when the
// probe could not determine it (§4.1 "seconds | unknown").
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Toolchain.ProbeTimeout)
	defer cancel()

	out, err := a.runProbe(ctx, "-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, false, rerrors.ToolchainFailure(err, out)
	}

	trimmed := strings.TrimSpace(out)
	if trimmed == "" || trimmed == "N/A" {
		return 0, false, nil
	}
	d, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false, nil
	}
	return d, true, nil
}

// ProbeVideoInfo returns the first video stream's dimensions, fps, codec,
// and pixel format.
func (a *Adapter) ProbeVideoInfo(ctx context.Context, path string) (VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Toolchain.ProbeTimeout)
	defer cancel()

	out, err := a.runProbe(ctx, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,codec_name,pix_fmt",
		"-of", "json", path)
	if err != nil {
		return VideoInfo{}, rerrors.ToolchainFailure(err, out)
	}

	var parsed struct {
		Streams []struct {
			Width     int    `json:"width"`
			Height    int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
			CodecName string `json:"codec_name"`
			PixFmt    string `json:"pix_fmt"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil || len(parsed.Streams) == 0 {
		return VideoInfo{}, rerrors.InvalidInput(fmt.Sprintf("could not probe video stream of %s", path))
	}
	s := parsed.Streams[0]
	return VideoInfo{
		Width:  s.Width,
		Height: s.Height,
		FPS:    parseFrameRate(s.RFrameRate),
		Codec:  s.CodecName,
		PixFmt: s.PixFmt,
	}, nil
}

func parseFrameRate(raw string) float64 {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		f, _ := strconv.ParseFloat(raw, 64)
		return f
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// HasAudio reports whether the source carries at least one audio stream.
func (a *Adapter) HasAudio(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Toolchain.ProbeTimeout)
	defer cancel()

	out, err := a.runProbe(ctx, "-v", "error", "-select_streams", "a",
		"-show_entries", "stream=index", "-of", "csv=p=0", path)
	if err != nil {
		return false, rerrors.ToolchainFailure(err, out)
	}
	return strings.TrimSpace(out) != "", nil
}

// RunProbeRaw runs ffprobe with caller-supplied arguments and returns raw
// stdout, for probes not covered by the named helpers above (e.g. a single
// packet's PTS).
func (a *Adapter) RunProbeRaw(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Toolchain.ProbeTimeout)
	defer cancel()

	out, err := a.runProbe(ctx, args...)
	if err != nil {
		return "", rerrors.ToolchainFailure(err, out)
	}
	return out, nil
}

func (a *Adapter) runProbe(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, a.cfg.Toolchain.ProbePath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Run spawns the encoder with the given arguments in its own process group
// so a SIGTERM to the parent does not propagate (§4.1). Stderr is captured
// to a temp file, never a pipe, so a stalled reader cannot deadlock the
// encoder on a full pipe buffer. Progress is parsed from a `-progress
// pipe:1` stdout stream and delivered to onProgress no more often than the
// configured interval.
func (a *Adapter) Run(ctx context.Context, args []string, totalDuration float64, onProgress OnProgress, timeout time.Duration) (ok bool, stderrTail string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stderrFile, ferr := os.CreateTemp("", "toolchain-stderr-*.log")
	if ferr != nil {
		return false, "", rerrors.InternalError(ferr)
	}
	defer os.Remove(stderrFile.Name())
	defer stderrFile.Close()

	fullArgs := append([]string{"-progress", "pipe:1", "-stats_period", "0.5"}, args...)
	cmd := exec.CommandContext(runCtx, a.cfg.Toolchain.BinaryPath, fullArgs...)
	cmd.Stderr = stderrFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	stdout, perr := cmd.StdoutPipe()
	if perr != nil {
		return false, "", rerrors.InternalError(perr)
	}

	if err := cmd.Start(); err != nil {
		return false, "", rerrors.ToolchainFailure(err, "")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.streamProgress(stdout, totalDuration, onProgress)
	}()

	waitErr := cmd.Wait()
	<-done

	if runCtx.Err() == context.DeadlineExceeded {
		tail := tailLines(stderrFile.Name(), 20)
		return false, tail, rerrors.Timeout("toolchain_run", timeout.String())
	}

	if waitErr != nil {
		tail := tailLines(stderrFile.Name(), 20)
		return false, tail, rerrors.ToolchainFailure(waitErr, tail)
	}

	return true, "", nil
}

// streamProgress parses `key=value` lines and rate-limits callbacks to the
// adapter's configured interval. Parse errors on individual lines are
// ignored — progress is best-effort, never fatal (§4.1).
func (a *Adapter) streamProgress(r io.Reader, totalDuration float64, onProgress OnProgress) {
	if onProgress == nil {
		_, _ = io.Copy(io.Discard, r)
		return
	}

	scanner := bufio.NewScanner(r)
	var cur Progress
	lastEmit := time.Time{}
	interval := a.cfg.Toolchain.ProgressInterval

	flush := func(force bool) {
		if !force && time.Since(lastEmit) < interval {
			return
		}
		onProgress(cur)
		lastEmit = time.Now()
	}

	for scanner.Scan() {
		line := scanner.Text()
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		switch k {
		case "out_time_ms":
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				cur.OutTimeMS = n
			}
		case "speed":
			cur.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		case "fps":
			cur.FPS, _ = strconv.ParseFloat(v, 64)
		case "bitrate":
			cur.Bitrate = v
		case "progress":
			cur.Stage = v
			flush(v == "end")
			continue
		}
		flush(false)
	}
}

func tailLines(path string, n int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
