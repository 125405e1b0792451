// Package memory implements the persistence ports in process memory.
// It backs the storage=memory mode and the test suites; behavior mirrors
// the postgres adapter.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"phillyrising/domain"
)

type Store struct {
	mu sync.Mutex

	feeds         map[string]domain.Feed // by ID
	items         map[string]domain.Item // by feedID + "\x00" + guid
	profiles      map[string]domain.Profile
	actions       []domain.Action
	neighborhoods map[string]domain.Neighborhood // by tag
	shortURLs     map[string]domain.ShortURL     // by code
	revisions     []domain.Revision
	sessions      map[string]domain.Session
}

func NewStore() *Store {
	return &Store{
		feeds:         map[string]domain.Feed{},
		items:         map[string]domain.Item{},
		profiles:      map[string]domain.Profile{},
		neighborhoods: map[string]domain.Neighborhood{},
		shortURLs:     map[string]domain.ShortURL{},
		sessions:      map[string]domain.Session{},
	}
}

func newID() string { return uuid.New().String() }

func (s *Store) CreateShortURL(_ context.Context, code, target string) (domain.ShortURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shortURLs[code]; ok {
		return domain.ShortURL{}, domain.ErrAlreadyExists
	}
	su := domain.ShortURL{ID: newID(), CreatedAt: time.Now(), Code: code, TargetURL: target}
	s.shortURLs[code] = su
	return su, nil
}

func (s *Store) ResolveShortURL(_ context.Context, code string) (domain.ShortURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	su, ok := s.shortURLs[code]
	if !ok {
		return domain.ShortURL{}, domain.ErrNotFound
	}
	su.Hits++
	s.shortURLs[code] = su
	return su, nil
}

func (s *Store) ListShortURLs(_ context.Context, limit int) ([]domain.ShortURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ShortURL, 0, len(s.shortURLs))
	for _, su := range s.shortURLs {
		out = append(out, su)
	}
	sortByTimeDesc(out, func(su domain.ShortURL) time.Time { return su.CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) RecordRevision(_ context.Context, r domain.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = newID()
	r.CreatedAt = time.Now()
	s.revisions = append(s.revisions, r)
	return nil
}

func (s *Store) ListRevisions(_ context.Context, kind, entityID string, limit int) ([]domain.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Revision
	for i := len(s.revisions) - 1; i >= 0; i-- {
		r := s.revisions[i]
		if r.Kind == kind && r.EntityID == entityID {
			out = append(out, r)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) CreateSession(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *Store) LookupSession(_ context.Context, token string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || sess.Expired(time.Now()) {
		return domain.Session{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func sortByTimeDesc[T any](items []T, key func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]).After(key(items[j])) })
}
