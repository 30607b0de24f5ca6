package subtitle

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/internal/toolchain"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// Engine implements the Subtitle Engine (§4.2): format conversion, style
// application, time shifting for continuation placements, and combining
// many placements into the single file the export pipeline burns in.
type Engine struct {
	tc  *toolchain.Adapter
	log logger.Logger
}

func New(tc *toolchain.Adapter, log logger.Logger) *Engine {
	return &Engine{tc: tc, log: log.WithField("component", "subtitle")}
}

// ConvertTimedToStyled converts an SRT file to ASS in-process (ParseSRT,
// then WriteASS under a default 1920x1080 header). Empty inputs are rejected rather than silently producing an
// empty styled file downstream stages would then burn as a no-op.
func (e *Engine) ConvertTimedToStyled(ctx context.Context, srtPath, assPath string) error {
	data, err := os.ReadFile(srtPath)
	if err != nil {
		return rerrors.MissingInput("subtitle", srtPath)
	}
	if strings.TrimSpace(string(data)) == "" {
		return rerrors.InvalidInput(fmt.Sprintf("subtitle file %s is empty", srtPath))
	}

	cues := ParseSRT(string(data))
	header := DefaultHeader("Default", models.SubtitleStyle{
		Font: "Arial", Size: 42, PrimaryColor: "#FFFFFF", OutlineColor: "#000000",
		ShadowColor: "#000000", OutlineWidth: 2, Shadow: 1, BorderStyle: 1, Position: 20,
	}, 1920, 1080)
	rendered := WriteASS(header, "Default", cues)
	return os.WriteFile(assPath, []byte(rendered), 0o644)
}

// ApplyStyle rewrites the single "Style: Default,..." line of an ASS file
// with the given style's 23 fields, at PlayRes 1920x1080 (callers that
// need a different PlayRes regenerate via Combine instead).
func (e *Engine) ApplyStyle(assPath string, style models.SubtitleStyle) error {
	data, err := os.ReadFile(assPath)
	if err != nil {
		return rerrors.MissingInput("subtitle", assPath)
	}
	preamble, cues := ParseASS(string(data))
	header := DefaultHeader("Default", style, 1920, 1080)
	_ = preamble // the regenerated header replaces the preamble wholesale
	return os.WriteFile(assPath, []byte(WriteASS(header, "Default", cues)), 0o644)
}

// Shift subtracts audioOffset from every cue (for continuation placements
// whose audio was trimmed at audioOffset), drops cues that end at or
// before zero, and clamps cues to [0, newDuration). Non-cue header lines
// are preserved verbatim.
func Shift(doc *Document, audioOffset, newDuration time.Duration) *Document {
	out := &Document{Format: doc.Format, Preamble: doc.Preamble}
	for _, c := range doc.Cues {
		start := c.Start - audioOffset
		end := c.End - audioOffset
		if end <= 0 {
			continue
		}
		if start >= newDuration {
			continue
		}
		if start < 0 {
			start = 0
		}
		if end > newDuration {
			end = newDuration
		}
		out.Cues = append(out.Cues, Cue{Start: start, End: end, Text: c.Text})
	}
	return out
}

// Placement is the subset of a Segment Placement the Subtitle Engine needs
// to fold one narration's subtitle cues into the combined output.
type Placement struct {
	SegmentID     string
	SubtitlePath  string
	TimelineStart time.Duration
	AudioOffset   time.Duration
	Duration      time.Duration
	Style         models.SubtitleStyle
}

// Combine merges subtitle cues from many placements into a single styled
// document: each placement gets a uniquely named style (SegN), its font
// metrics scaled against the reference resolution, and its cues shifted
// onto the absolute output timeline. Missing subtitle files are skipped
// with a warning per §4.2's MissingInput recovery rule. Pure function of
// its arguments: identical input always produces identical output.
func (e *Engine) Combine(ctx context.Context, placements []Placement, playResX, playResY int) (string, error) {
	sorted := make([]Placement, len(placements))
	copy(sorted, placements)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TimelineStart < sorted[j].TimelineStart })

	var allStyles []string
	var allCues []string
	formatLine := eventsFormatLine

	for i, p := range sorted {
		if p.SubtitlePath == "" {
			continue
		}
		data, err := os.ReadFile(p.SubtitlePath)
		if err != nil {
			e.log.WithField("segment_id", p.SegmentID).Warnf("subtitle file missing, skipping: %v", err)
			continue
		}

		styleName := fmt.Sprintf("Seg%d", i)
		preamble, cues := ParseASS(string(data))
		if len(cues) == 0 && strings.TrimSpace(preamble) == "" {
			cues = ParseSRT(string(data))
		}

		styleLine := styleLineFor(styleName, p.Style, playResX, playResY)
		allStyles = append(allStyles, styleLine)

		shifted := Shift(&Document{Format: FormatASS, Cues: cues}, p.AudioOffset, p.Duration)
		for _, c := range shifted.Cues {
			start := c.Start + p.TimelineStart
			end := c.End + p.TimelineStart
			allCues = append(allCues, fmt.Sprintf("Dialogue: 0,%s,%s,%s,,0,0,0,,%s",
				formatASSTime(start), formatASSTime(end), styleName, cleanTextForASS(c.Text)))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `[Script Info]
Title: Generated Subtitles
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes
PlayResX: %d
PlayResY: %d
YCbCr Matrix: TV.709

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
`, playResX, playResY)
	for _, s := range allStyles {
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\n[Events]\n")
	b.WriteString(formatLine)
	b.WriteString("\n")
	for _, c := range allCues {
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func styleLineFor(name string, style models.SubtitleStyle, playResX, playResY int) string {
	scale := float64(playResY) / 288.0
	size := scaleInt(style.Size, scale)
	outline := scaleInt(style.OutlineWidth, scale)
	shadow := scaleInt(style.Shadow, scale)
	marginV := scaleInt(style.Position, scale)
	primary := parseColorToASS(style.PrimaryColor)
	outlineColor := parseColorToASS(style.OutlineColor)
	shadowColor := parseColorToASS(style.ShadowColor)

	return fmt.Sprintf("Style: %s,%s,%d,%s,%s,%s,%s,1,0,0,0,100,100,0,0,%d,%d,%d,%d,10,10,%d,1",
		name, mapFontName(style.Font), size, primary, primary, outlineColor, shadowColor,
		style.BorderStyle, outline, shadow, defaultAlignment, marginV)
}
