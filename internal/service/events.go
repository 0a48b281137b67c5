package service

import (
	"sync"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

// SessionEvents fans auth-state changes out to the open dashboard streams of
// the affected user. Publishing never blocks: a subscriber whose buffer is
// full misses the event and picks the change up on its next periodic check.
type SessionEvents struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.AuthEvent]struct{}
}

// NewSessionEvents creates an empty broker.
func NewSessionEvents() *SessionEvents {
	return &SessionEvents{subs: make(map[string]map[chan domain.AuthEvent]struct{})}
}

// Subscribe registers a listener for userID. The returned cancel function
// removes it and closes the channel; it is safe to call more than once.
func (e *SessionEvents) Subscribe(userID string) (<-chan domain.AuthEvent, func()) {
	ch := make(chan domain.AuthEvent, 8)

	e.mu.Lock()
	if e.subs[userID] == nil {
		e.subs[userID] = make(map[chan domain.AuthEvent]struct{})
	}
	e.subs[userID][ch] = struct{}{}
	e.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs[userID], ch)
			if len(e.subs[userID]) == 0 {
				delete(e.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every listener of userID.
func (e *SessionEvents) Publish(userID string, ev domain.AuthEvent) {
	if userID == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs[userID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of listeners for userID.
func (e *SessionEvents) Subscribers(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs[userID])
}
