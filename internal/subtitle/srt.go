package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var srtTimeRegex = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

// ParseSRT parses a line-based timed-text file into cues. Malformed blocks
// are skipped silently: no error is returned and nothing is logged.
func ParseSRT(data string) []Cue {
	blocks := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n\n")
	var cues []Cue

	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			continue
		}

		timeLineIdx := 0
		if !srtTimeRegex.MatchString(lines[0]) {
			// first line is the numeric index; skip it
			timeLineIdx = 1
		}
		if timeLineIdx >= len(lines) {
			continue
		}

		m := srtTimeRegex.FindStringSubmatch(lines[timeLineIdx])
		if m == nil {
			continue
		}
		start := srtDuration(m[1], m[2], m[3], m[4])
		end := srtDuration(m[5], m[6], m[7], m[8])
		text := strings.Join(lines[timeLineIdx+1:], "\n")

		cues = append(cues, Cue{Start: start, End: end, Text: text})
	}
	return cues
}

func srtDuration(h, m, s, ms string) time.Duration {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	mss, _ := strconv.Atoi(ms)
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second + time.Duration(mss)*time.Millisecond
}

// WriteSRT renders cues back into SRT text, renumbering sequentially.
func WriteSRT(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, formatSRTTime(c.Start), formatSRTTime(c.End), c.Text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func formatSRTTime(d time.Duration) string {
	total := d.Milliseconds()
	ms := total % 1000
	total /= 1000
	s := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
