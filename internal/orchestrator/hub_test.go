package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

func TestHub_BroadcastDeliversToAllSubscribers(t *testing.T) {
	h := newHub()
	ch1, unsub1 := h.subscribe()
	ch2, unsub2 := h.subscribe()
	defer unsub1()
	defer unsub2()

	h.broadcast(models.ProgressEvent{Stage: "segments", Progress: 10})

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, "segments", ev1.Stage)
	assert.Equal(t, "segments", ev2.Stage)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := newHub()
	ch, unsub := h.subscribe()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestHub_BroadcastNeverBlocksOnFullSubscriberBuffer(t *testing.T) {
	h := newHub()
	_, unsub := h.subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.broadcast(models.ProgressEvent{Progress: i})
	}
}

func TestHub_CloseAllClosesEverySubscriber(t *testing.T) {
	h := newHub()
	ch1, _ := h.subscribe()
	ch2, _ := h.subscribe()

	h.closeAll()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	assert.False(t, ok1)
	assert.False(t, ok2)
}

func TestOutputPath_SanitizesTraversalAndAddsExtension(t *testing.T) {
	path := resolveOutputPath("/out", models.RenderConfig{OutputFilename: "../../etc/passwd"}, "job-1")
	require.NotContains(t, path, "..")
	assert.Contains(t, path, ".mp4")
}

func TestOutputPath_ExplicitOutputPathWins(t *testing.T) {
	path := resolveOutputPath("/out", models.RenderConfig{OutputPath: "/custom/path.mp4"}, "job-1")
	assert.Equal(t, "/custom/path.mp4", path)
}

func TestOutputPath_EmptyFilenameFallsBackToJobID(t *testing.T) {
	path := resolveOutputPath("/out", models.RenderConfig{}, "job-42")
	assert.Contains(t, path, "job-42")
}
