package session

import (
	"fmt"
	"sync"
	"time"
)

// Store holds active sessions. Sessions live in memory only; nothing
// survives a process restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Context
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Context)}
}

// Create registers a new session and returns it.
func (st *Store) Create() *Context {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := fmt.Sprintf("session-%d", time.Now().UnixNano())
	// Nanosecond clocks can repeat under load; disambiguate.
	for i := 1; ; i++ {
		if _, taken := st.sessions[id]; !taken {
			break
		}
		id = fmt.Sprintf("session-%d-%d", time.Now().UnixNano(), i)
	}
	s := New(id)
	st.sessions[id] = s
	return s
}

// Get looks up a session by id.
func (st *Store) Get(id string) (*Context, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	return s, ok
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}
