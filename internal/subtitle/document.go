// Package subtitle implements the SRT <-> styled-subtitle conversion, time
// shifting, style merging, and resolution-aware combination used by the
// export pipeline's subtitle burn-in stage.
package subtitle

import "time"

// Format identifies which of the two subtitle formats a Document holds.
type Format int

const (
	FormatSRT Format = iota
	FormatASS
)

// Cue is one timed caption, format-agnostic.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Document is a parsed subtitle file. For ASS, Preamble holds every header
// line verbatim (Script Info, V4+ Styles, the Events "Format:" line) so
// shift/combine can rewrite only the Dialogue lines and leave styling
// intact; for SRT, Preamble is always empty.
type Document struct {
	Format   Format
	Preamble string
	Cues     []Cue
}

func (d *Document) clone() *Document {
	cues := make([]Cue, len(d.Cues))
	copy(cues, d.Cues)
	return &Document{Format: d.Format, Preamble: d.Preamble, Cues: cues}
}
