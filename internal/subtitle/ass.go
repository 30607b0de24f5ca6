package subtitle

import (
	"fmt"
	"strings"
	"time"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

const eventsFormatLine = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

// ParseASS splits a styled subtitle file into its header preamble (every
// line up to and including the Events "Format:" line) and its Dialogue
// cues. Malformed Dialogue lines are skipped.
func ParseASS(data string) (preamble string, cues []Cue) {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	var preLines []string
	inEvents := false
	sawFormat := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !sawFormat {
			preLines = append(preLines, line)
			if strings.HasPrefix(trimmed, "[Events]") {
				inEvents = true
			}
			if inEvents && strings.HasPrefix(trimmed, "Format:") {
				sawFormat = true
			}
			continue
		}
		if strings.HasPrefix(trimmed, "Dialogue:") {
			if cue, ok := parseDialogueLine(trimmed); ok {
				cues = append(cues, cue)
			}
		}
	}
	return strings.Join(preLines, "\n"), cues
}

func parseDialogueLine(line string) (Cue, bool) {
	rest := strings.TrimPrefix(line, "Dialogue:")
	fields := strings.SplitN(rest, ",", 10)
	if len(fields) < 10 {
		return Cue{}, false
	}
	start, err1 := parseASSTime(strings.TrimSpace(fields[1]))
	end, err2 := parseASSTime(strings.TrimSpace(fields[2]))
	if err1 != nil || err2 != nil {
		return Cue{}, false
	}
	return Cue{Start: start, End: end, Text: fields[9]}, true
}

func parseASSTime(s string) (time.Duration, error) {
	var h, m int
	var sec float64
	_, err := fmt.Sscanf(s, "%d:%d:%f", &h, &m, &sec)
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)), nil
}

func formatASSTime(d time.Duration) string {
	total := d.Seconds()
	h := int(total) / 3600
	m := (int(total) % 3600) / 60
	s := int(total) % 60
	cs := int((total - float64(int(total))) * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// WriteASS renders the preamble verbatim followed by one Dialogue line per
// cue, all under the given style name.
func WriteASS(preamble string, styleName string, cues []Cue) string {
	var b strings.Builder
	b.WriteString(preamble)
	if !strings.HasSuffix(preamble, "\n") {
		b.WriteString("\n")
	}
	for _, c := range cues {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			formatASSTime(c.Start), formatASSTime(c.End), styleName, cleanTextForASS(c.Text))
	}
	return b.String()
}

func cleanTextForASS(text string) string {
	text = strings.ReplaceAll(text, "\n", "\\N")
	text = strings.ReplaceAll(text, "{", "\\{")
	text = strings.ReplaceAll(text, "}", "\\}")
	text = strings.ReplaceAll(text, "|", "\\h")
	return strings.Join(strings.Fields(text), " ")
}

// DefaultHeader builds a minimal [Script Info]/[V4+ Styles]/[Events] preamble
// with one style named styleName, scaled against the reference resolution
// (height 288) per §4.2's resolution-scaling rule.
func DefaultHeader(styleName string, style models.SubtitleStyle, playResX, playResY int) string {
	scale := float64(playResY) / 288.0
	size := scaleInt(style.Size, scale)
	outline := scaleInt(style.OutlineWidth, scale)
	shadow := scaleInt(style.Shadow, scale)
	marginV := scaleInt(style.Position, scale)

	primary := parseColorToASS(style.PrimaryColor)
	outlineColor := parseColorToASS(style.OutlineColor)
	shadowColor := parseColorToASS(style.ShadowColor)

	return fmt.Sprintf(`[Script Info]
Title: Generated Subtitles
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes
PlayResX: %d
PlayResY: %d
YCbCr Matrix: TV.709

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: %s,%s,%d,%s,%s,%s,%s,1,0,0,0,100,100,0,0,%d,%d,%d,%d,10,10,%d,1

[Events]
%s
`, playResX, playResY, styleName, mapFontName(style.Font), size, primary, primary, outlineColor, shadowColor,
		style.BorderStyle, outline, shadow, defaultAlignment, marginV, eventsFormatLine)
}

func scaleInt(v int, scale float64) int {
	scaled := int(float64(v)*scale + 0.5)
	if scaled < 0 {
		return 0
	}
	return scaled
}

func parseColorToASS(hexColor string) string {
	hexColor = strings.TrimPrefix(hexColor, "#")
	if len(hexColor) != 6 {
		return "&H00FFFFFF"
	}
	r, g, b := hexColor[0:2], hexColor[2:4], hexColor[4:6]
	return fmt.Sprintf("&H00%s%s%s", b, g, r)
}

// defaultAlignment is bottom-center. The Style shape carries only a
// vertical margin (Position), not a full 9-point anchor, so every style
// this package emits anchors at the bottom-center point and varies only
// its MarginV.
const defaultAlignment = 2
