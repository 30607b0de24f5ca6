package export

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/toolchain"
)

// firstPTSTolerance is the §4.5 "combining" sanity check: a zero-copy
// concat's first video PTS must land within 100ms of zero or the pipeline
// falls back to a filter-graph concat that explicitly resets PTS.
const firstPTSTolerance = 0.1

// runCombining concatenates every extracted visibility segment. It prefers
// a zero-copy stream-copy concat (cheap) and falls back to a re-encoding
// filter-graph concat (ErrorKind.StreamCopyConcatFailed, recovered) when
// the fast path produces a misaligned first PTS.
func (p *Pipeline) runCombining(ctx context.Context, st *runState, onProgress OnProgress) error {
	if len(st.segmentOutputs) == 0 {
		return rerrors.InvalidInput("no segments to combine")
	}
	if len(st.segmentOutputs) == 1 {
		st.concatPath = st.segmentOutputs[0].path
		st.concatHasAudio = true
		return nil
	}

	listPath := st.ws.path("concat_list.txt")
	if err := writeConcatList(listPath, st.segmentOutputs); err != nil {
		return rerrors.InternalError(err)
	}
	st.cl.register(listPath)

	outPath := st.ws.path("combined_streamcopy.mp4")
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outPath}
	if _, _, err := p.tc.Run(ctx, args, 0, progressAdapter(onProgress, StageCombining), p.cfg.Toolchain.ConcatTimeout); err != nil {
		return err
	}

	firstPTS, err := p.probeFirstVideoPTS(ctx, outPath)
	if err == nil && firstPTS <= firstPTSTolerance {
		st.cl.register(outPath)
		st.concatPath = outPath
		st.concatHasAudio = true
		return nil
	}

	st.warn("stream-copy concat produced a misaligned first PTS (%fs), falling back to filter-graph concat", firstPTS)
	_ = os.Remove(outPath)

	return p.combineViaFilterGraph(ctx, st, onProgress)
}

func writeConcatList(path string, segments []segmentExtraction) error {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "file %s\n", toolchain.EscapeListFilePath(seg.path))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// combineViaFilterGraph is the StreamCopyConcatFailed recovery path: every
// input is explicitly PTS-reset and concatenated via the concat filter
// rather than the demuxer, at the cost of a full re-encode.
func (p *Pipeline) combineViaFilterGraph(ctx context.Context, st *runState, onProgress OnProgress) error {
	outPath := st.ws.path("combined_filtergraph.mp4")

	args := []string{"-y"}
	for _, seg := range st.segmentOutputs {
		args = append(args, "-i", seg.path)
	}

	var labels []string
	var filters []string
	for i := range st.segmentOutputs {
		filters = append(filters, fmt.Sprintf("[%d:v]setpts=PTS-STARTPTS[v%d]", i, i))
		filters = append(filters, fmt.Sprintf("[%d:a]asetpts=PTS-STARTPTS[a%d]", i, i))
		labels = append(labels, fmt.Sprintf("[v%d][a%d]", i, i))
	}
	filters = append(filters, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[vout][aout]", strings.Join(labels, ""), len(st.segmentOutputs)))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[vout]", "-map", "[aout]",
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "18", "-c:a", "aac",
		outPath,
	)

	if _, _, err := p.tc.Run(ctx, args, 0, progressAdapter(onProgress, StageCombining), p.cfg.Toolchain.ConcatTimeout); err != nil {
		return rerrors.StreamCopyConcatFailed(err)
	}

	st.cl.register(outPath)
	st.concatPath = outPath
	st.concatHasAudio = true
	return nil
}

// probeFirstVideoPTS returns the first video packet's presentation
// timestamp in seconds.
func (p *Pipeline) probeFirstVideoPTS(ctx context.Context, path string) (float64, error) {
	out, err := p.tc.RunProbeRaw(ctx, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "packet=pts_time", "-read_intervals", "%+#1",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, err
	}
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return 0, rerrors.InvalidInput("could not determine first video PTS")
	}
	return strconv.ParseFloat(trimmed, 64)
}
