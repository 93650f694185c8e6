// Package streaming implements LogLens's live ingestion hub (C12), per
// spec.md §4.12: source lifecycle management, buffering/batching of raw
// lines into StreamingBatches, and broadcast fan-out to dashboard
// subscribers. The Command source type and its security checks adapt the
// teacher's internal/executor.BCCExecutor.Run and SecurityChecker from
// "run a BCC tool and parse histograms" to "run an arbitrary subprocess
// and stream its stdout/stderr lines".
package streaming

import (
	"sync"

	"github.com/loglens/loglens/internal/model"
)

// hubBufferSize bounds each subscriber's channel; a subscriber that falls
// behind this far has batches dropped rather than blocking the publisher,
// per spec.md's documented slow-subscriber lag trade-off.
const hubBufferSize = 32

// Hub is the process-wide broadcast point for streaming batches, one
// bounded channel per subscriber per project topic.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan model.StreamingBatch // project id -> sub id -> channel
	next int
}

// NewHub constructs an empty Hub. Per spec.md's "globals" guidance, a Hub
// is a singleton injected into the streaming runner and the dashboard's
// stream handler, not implicit package state.
func NewHub() *Hub {
	return &Hub{subs: map[string]map[int]chan model.StreamingBatch{}}
}

// Subscribe returns a channel of batches for projectID and an unsubscribe
// function the caller must call when done.
func (h *Hub) Subscribe(projectID string) (<-chan model.StreamingBatch, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[projectID] == nil {
		h.subs[projectID] = map[int]chan model.StreamingBatch{}
	}
	id := h.next
	h.next++
	ch := make(chan model.StreamingBatch, hubBufferSize)
	h.subs[projectID][id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if m, ok := h.subs[projectID]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(h.subs, projectID)
			}
		}
		close(ch)
	}
	return ch, unsubscribe
}

// Publish fans batch out to every subscriber of its project. A subscriber
// whose channel is full has the batch dropped for it rather than blocking
// the publisher or other subscribers.
func (h *Hub) Publish(batch model.StreamingBatch) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[batch.ProjectID] {
		select {
		case ch <- batch:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers projectID currently has.
func (h *Hub) SubscriberCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[projectID])
}
