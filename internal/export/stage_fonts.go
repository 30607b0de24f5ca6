package export

import "context"

// runFonts ensures every segment's declared font is installed locally,
// invoking the external Font Provider for any that aren't. Failure to
// install is a warning, not fatal (§4.5 "fonts") — rendering continues
// with the system default font.
func (p *Pipeline) runFonts(ctx context.Context, st *runState, onProgress OnProgress) error {
	if p.fonts == nil || !st.opts.IncludeSubtitles {
		return nil
	}

	seen := map[string]bool{}
	for _, seg := range st.opts.Project.GenericSegments {
		family := seg.Style.Font
		if family == "" || seen[family] {
			continue
		}
		seen[family] = true

		ok, err := p.fonts.EnsureFont(ctx, family)
		if err != nil || !ok {
			st.warn("font %q unavailable, falling back to system default: %v", family, err)
			if onProgress != nil {
				onProgress(StageFonts, stageProgress(1, len(stageOrder)), st.warnings[len(st.warnings)-1])
			}
		}
	}

	return nil
}
