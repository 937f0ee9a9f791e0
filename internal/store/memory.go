package store

import (
	"context"
	"sync"

	"github.com/kinoxada/kinobot/internal/catalog"
)

// MemoryCatalog is an in-memory Catalog for tests and local runs.
type MemoryCatalog struct {
	mu     sync.RWMutex
	movies map[string]catalog.Movie
	users  map[string]struct{}
}

var _ Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		movies: make(map[string]catalog.Movie),
		users:  make(map[string]struct{}),
	}
}

func (s *MemoryCatalog) GetMovie(ctx context.Context, code string) (*catalog.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[code]
	if !ok {
		return nil, nil
	}
	m.Code = code
	return &m, nil
}

func (s *MemoryCatalog) PutMovie(ctx context.Context, m catalog.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.movies[m.Code]; exists {
		return ErrCodeTaken
	}
	s.movies[m.Code] = m
	return nil
}

func (s *MemoryCatalog) DeleteMovie(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.movies, code)
	return nil
}

func (s *MemoryCatalog) ListMovies(ctx context.Context) (map[string]catalog.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]catalog.Movie, len(s.movies))
	for code, m := range s.movies {
		m.Code = code
		out[code] = m
	}
	return out, nil
}

func (s *MemoryCatalog) RecordUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[userID] = struct{}{}
	return nil
}

func (s *MemoryCatalog) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users), nil
}
