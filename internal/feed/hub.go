// Package feed distributes full expense snapshots to live subscribers.
// Writers publish the complete, already sorted collection of a user; each
// subscriber always observes the latest snapshot, never an incremental diff.
package feed

import (
	"log/slog"
	"sync"

	"kharcha/internal/core"
)

// Subscription receives snapshots for a single user. Cancel must be called
// when the consumer goes away; it is safe to call more than once.
type Subscription struct {
	C      <-chan []core.Expense
	cancel func()
}

// Cancel detaches the subscription from the hub and closes C.
func (s *Subscription) Cancel() {
	s.cancel()
}

type subscriber struct {
	ch     chan []core.Expense
	userID string
}

// Hub fans out snapshots per user. Slow subscribers are coalesced: a pending
// undelivered snapshot is replaced by the newer one rather than queued.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a listener for a user's snapshots.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &subscriber{
		// Capacity one so Broadcast never blocks on a slow reader.
		ch:     make(chan []core.Expense, 1),
		userID: userID,
	}

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[userID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return &Subscription{
		C: sub.ch,
		cancel: func() {
			once.Do(func() {
				h.mu.Lock()
				if set, ok := h.subs[userID]; ok {
					delete(set, sub)
					if len(set) == 0 {
						delete(h.subs, userID)
					}
				}
				h.mu.Unlock()
				close(sub.ch)
			})
		},
	}
}

// Broadcast delivers a snapshot to every subscriber of the user. Each
// subscriber gets its own copy so downstream sorting cannot alias.
func (h *Hub) Broadcast(userID string, snapshot []core.Expense) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[userID]
	if len(set) == 0 {
		return
	}

	for sub := range set {
		cp := make([]core.Expense, len(snapshot))
		copy(cp, snapshot)
		select {
		case sub.ch <- cp:
		default:
			// Drop the stale pending snapshot, keep the newest.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- cp
		}
	}

	slog.Debug("snapshot broadcast",
		slog.String("user_id", userID),
		slog.Int("expenses", len(snapshot)),
		slog.Int("subscribers", len(set)))
}

// SubscriberCount reports the number of active subscriptions for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
