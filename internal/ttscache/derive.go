package ttscache

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/activadee/videocraft-render/internal/subtitle"
)

// maxLineRunes is the approximate number of characters that fit one
// subtitle line at typical viewport widths; text is chunked to roughly
// this length per cue when no word-level timing is available.
const maxLineRunes = 42

// wordsPerSecond approximates narration pace when no audio duration is
// available at all (e.g. probing the just-written file also failed).
const wordsPerSecond = 2.5

func estimateDurationFromText(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 1
	}
	return float64(words) / wordsPerSecond
}

// evenlySpacedCues chunks text into line-length pieces and spaces them
// evenly across [0, totalDuration), proportional to each chunk's rune
// count so longer lines get proportionally more screen time.
func evenlySpacedCues(text string, totalDuration time.Duration) []subtitle.Cue {
	chunks := chunkText(text, maxLineRunes)
	if len(chunks) == 0 {
		return nil
	}

	totalRunes := 0
	for _, c := range chunks {
		totalRunes += utf8.RuneCountInString(c)
	}
	if totalRunes == 0 {
		totalRunes = len(chunks)
	}

	var cues []subtitle.Cue
	var elapsed time.Duration
	for i, c := range chunks {
		share := float64(utf8.RuneCountInString(c)) / float64(totalRunes)
		dur := time.Duration(share * float64(totalDuration))
		if i == len(chunks)-1 {
			dur = totalDuration - elapsed
		}
		cues = append(cues, subtitle.Cue{Start: elapsed, End: elapsed + dur, Text: c})
		elapsed += dur
	}
	return cues
}

func chunkText(text string, maxRunes int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		if curLen > 0 && curLen+1+wl > maxRunes {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += wl
	}
	flush()
	return chunks
}
