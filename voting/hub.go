package voting

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
)

// subscriberBuffer is how many snapshots a subscriber may fall behind
// before it is dropped. Snapshots are small and mutations are rare, so a
// full buffer means the connection is dead or wedged.
const subscriberBuffer = 16

// Hub fans session snapshots out to every connected stream. Subscribers are
// keyed by connection id; a subscriber that cannot keep up is closed and
// removed rather than allowed to block the writer.
type Hub struct {
	mu   sync.Mutex
	subs map[string]chan Snapshot

	onChange func(count int)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Snapshot)}
}

// OnSubscriberChange registers a callback invoked with the subscriber count
// after every add/remove. Used for the connected-clients gauge.
func (h *Hub) OnSubscriberChange(fn func(count int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

func (h *Hub) add(current Snapshot) (string, <-chan Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Snapshot, subscriberBuffer)
	ch <- current
	h.subs[id] = ch

	logging.Log.Debugf("HUB: subscriber %s connected (%d total)", id, len(h.subs))
	h.notifyLocked()
	return id, ch
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)

	logging.Log.Debugf("HUB: subscriber %s removed (%d total)", id, len(h.subs))
	h.notifyLocked()
}

func (h *Hub) publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- snap:
		default:
			delete(h.subs, id)
			close(ch)
			logging.Log.Warnf("HUB: subscriber %s fell behind, dropped", id)
			h.notifyLocked()
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) notifyLocked() {
	if h.onChange != nil {
		h.onChange(len(h.subs))
	}
}
