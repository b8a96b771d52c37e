package bus

import (
	"sync"

	"github.com/jkaberg/sensor-dash/internal/domain"
)

// Bus provides fan-out pub/sub semantics for domain.DisplayState snapshots.
// Each Subscribe call gets its own channel that receives future
// publications. Past messages are not replayed. The implementation is safe for
// concurrent publishers and subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan domain.DisplayState
	closed      bool
}

// New creates a ready-to-use Bus.
func New() *Bus { return &Bus{} }

// Subscribe returns a read-only channel that will receive future snapshots.
func (b *Bus) Subscribe() <-chan domain.DisplayState {
	ch := make(chan domain.DisplayState, 1) // small buffer avoids blocking
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers the snapshot to all subscribers without blocking. A
// subscriber whose buffer is full has the stale snapshot replaced so it
// always sees the newest state next.
func (b *Bus) Publish(s domain.DisplayState) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
