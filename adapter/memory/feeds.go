package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"phillyrising/domain"
)

func (s *Store) AddFeed(_ context.Context, f domain.Feed) (domain.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.feeds {
		if existing.Name == f.Name {
			return domain.Feed{}, domain.ErrAlreadyExists
		}
	}
	f.ID = newID()
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	s.feeds[f.ID] = f
	return f, nil
}

func (s *Store) DeleteFeed(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.feeds {
		if f.Name == name {
			delete(s.feeds, id)
			for key, it := range s.items {
				if it.FeedID == id {
					delete(s.items, key)
				}
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) ListFeeds(_ context.Context, limit int) ([]domain.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Feed, 0, len(s.feeds))
	for _, f := range s.feeds {
		out = append(out, f)
	}
	sortByTimeDesc(out, func(f domain.Feed) time.Time { return f.CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetFeedByName(_ context.Context, name string) (domain.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.feeds {
		if f.Name == name {
			return f, nil
		}
	}
	return domain.Feed{}, domain.ErrNotFound
}

func (s *Store) GetStaleFeeds(_ context.Context, interval time.Duration, limit int) ([]domain.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var out []domain.Feed
	for _, f := range s.feeds {
		backoff := time.Duration(float64(interval) * math.Pow(2, math.Min(float64(f.Failures), 6)))
		if f.LastPolledAt.IsZero() || !f.LastPolledAt.Add(backoff).After(now) {
			out = append(out, f)
		}
	}
	// Oldest poll first, never-polled before everything.
	sort.Slice(out, func(i, j int) bool { return out[i].LastPolledAt.Before(out[j].LastPolledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkFeedPolled(_ context.Context, feedID string, out domain.PollOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feeds[feedID]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	f.LastPolledAt = now
	f.UpdatedAt = now
	if out.Success {
		f.Failures = 0
		f.LastSuccessAt = now
		if !out.NotModified {
			f.ETag = out.ETag
			f.LastModified = out.LastModified
		}
	} else {
		f.Failures++
	}
	s.feeds[feedID] = f
	return nil
}

func (s *Store) UpsertItem(_ context.Context, it domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := it.FeedID + "\x00" + it.GUID
	now := time.Now()
	if existing, ok := s.items[key]; ok {
		existing.Title = it.Title
		existing.Link = it.Link
		existing.Summary = it.Summary
		existing.PublishedAt = it.PublishedAt
		existing.UpdatedAt = now
		s.items[key] = existing
		return nil
	}
	it.ID = newID()
	it.CreatedAt = now
	it.UpdatedAt = now
	s.items[key] = it
	return nil
}

func (s *Store) ListItems(_ context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Item
	for _, it := range s.items {
		if f.FeedID != "" && it.FeedID != f.FeedID {
			continue
		}
		if f.NeighborhoodTag != "" && it.NeighborhoodTag != f.NeighborhoodTag {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		out = append(out, it)
	}
	sortByTimeDesc(out, func(it domain.Item) time.Time { return it.PublishedAt })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
