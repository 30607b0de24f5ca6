package orchestrator

import (
	"sync"

	"github.com/activadee/videocraft-render/internal/domain/models"
)

// subscriberBuffer is how many buffered events a slow subscriber can fall
// behind by; further events are skipped for that subscriber (it stays
// attached) rather than blocking the broadcaster.
const subscriberBuffer = 64

// hub fans out one job's progress events to every attached subscriber
// channel, preserving emission order per §4.7's ordering guarantee. A late
// subscriber gets a snapshot on attach, never a replay of history.
type hub struct {
	mu   sync.Mutex
	subs map[int]chan models.ProgressEvent
	next int
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan models.ProgressEvent)}
}

// subscribe returns a channel that receives every future broadcast, and an
// unsubscribe func the caller must call when done listening.
func (h *hub) subscribe() (<-chan models.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan models.ProgressEvent, subscriberBuffer)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
	}
}

// broadcast delivers an event to every subscriber. A subscriber whose
// buffer is full is skipped for this event rather than blocking every
// other subscriber and the worker's stdout reader behind it.
func (h *hub) broadcast(ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
