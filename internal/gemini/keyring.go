package gemini

import "sync"

// KeyRing hands out the API key for the next call.
type KeyRing interface {
	Next() string
}

// RoundRobin rotates through a fixed key list. Rotation happens on every
// call regardless of the call's outcome.
type RoundRobin struct {
	mu   sync.Mutex
	keys []string
	next int
}

func NewRoundRobin(keys []string) *RoundRobin {
	return &RoundRobin{keys: append([]string(nil), keys...)}
}

func (r *RoundRobin) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return ""
	}
	key := r.keys[r.next]
	r.next = (r.next + 1) % len(r.keys)
	return key
}

// Len returns the number of keys in rotation.
func (r *RoundRobin) Len() int {
	return len(r.keys)
}
