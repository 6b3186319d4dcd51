// README: Session store contract and the in-memory backend.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists conversation state for the lifetime of a session.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error
}

// DefaultSessionTTL bounds how long an idle session is kept.
const DefaultSessionTTL = 24 * time.Hour

func encodeState(st *State) ([]byte, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", st.SessionID, err)
	}
	return b, nil
}

func decodeState(id string, b []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if st.Context.Preferences == nil {
		st.Context.Preferences = map[string]string{}
	}
	return &st, nil
}

type memoryItem struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps encoded sessions in process memory, so callers never
// share a *State with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{items: make(map[string]memoryItem), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || s.now().After(item.expires) {
		return nil, ErrSessionNotFound
	}
	return decodeState(id, item.data)
}

func (s *MemoryStore) Put(_ context.Context, st *State) error {
	b, err := encodeState(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[st.SessionID] = memoryItem{data: b, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, item := range s.items {
		if now.After(item.expires) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
