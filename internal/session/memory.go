package session

import "sync"

// MemoryStore is the volatile session backend; sessions are lost on
// restart and the admin restarts the flow.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Get(chatKey string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[chatKey]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *MemoryStore) Put(chatKey string, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[chatKey] = sess
	return nil
}

func (s *MemoryStore) Clear(chatKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatKey)
	return nil
}
