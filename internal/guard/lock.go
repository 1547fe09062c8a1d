// internal/guard/lock.go
//
// Per-conversation serialization. Turns for the same conversation run
// one at a time so that state reads and writes never interleave; turns
// for different conversations proceed in parallel.
package guard

import "sync"

// ConversationLocks hands out one mutex per conversation key. Mutexes
// are created on demand and kept for the life of the process.
type ConversationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewConversationLocks() *ConversationLocks {
	return &ConversationLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a conversation key and returns its
// unlock function.
func (l *ConversationLocks) Lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
