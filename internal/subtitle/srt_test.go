package subtitle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSRT_RoundTrip(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:03,500\nHello there\n\n2\n00:00:04,000 --> 00:00:06,250\nSecond line\n"

	cues := ParseSRT(input)
	require.Len(t, cues, 2)
	assert.Equal(t, time.Second, cues[0].Start)
	assert.Equal(t, 3*time.Second+500*time.Millisecond, cues[0].End)
	assert.Equal(t, "Hello there", cues[0].Text)

	out := WriteSRT(cues)
	roundTripped := ParseSRT(out)
	require.Len(t, roundTripped, 2)
	assert.Equal(t, cues[0].Start, roundTripped[0].Start)
	assert.Equal(t, cues[1].Text, roundTripped[1].Text)
}

func TestParseSRT_SkipsMalformedBlocks(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:03,500\nGood\n\nnot a cue at all\n\n2\n00:00:05,000 --> 00:00:06,000\nAlso good\n"

	cues := ParseSRT(input)
	require.Len(t, cues, 2)
	assert.Equal(t, "Good", cues[0].Text)
	assert.Equal(t, "Also good", cues[1].Text)
}

func TestParseSRT_TolerantOfMissingIndexLine(t *testing.T) {
	input := "00:00:01,000 --> 00:00:02,000\nNo index line\n"

	cues := ParseSRT(input)
	require.Len(t, cues, 1)
	assert.Equal(t, "No index line", cues[0].Text)
}
