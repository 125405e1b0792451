package memory

import (
	"context"
	"sort"
	"time"

	"phillyrising/domain"
)

func (s *Store) UpsertProfile(_ context.Context, p domain.Profile) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, existing := range s.profiles {
		if existing.Provider == p.Provider && existing.ProviderUID == p.ProviderUID {
			existing.Email = p.Email
			existing.AvatarURL = p.AvatarURL
			if p.NeighborhoodTag != "" {
				existing.NeighborhoodTag = p.NeighborhoodTag
			}
			existing.UpdatedAt = now
			s.profiles[id] = existing
			return existing, nil
		}
	}
	p.ID = newID()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	p.Points = s.scoreLocked(id)
	return p, nil
}

func (s *Store) GetProfileByUsername(_ context.Context, username string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Username == username {
			p.Points = s.scoreLocked(p.ID)
			return p, nil
		}
	}
	return domain.Profile{}, domain.ErrNotFound
}

func (s *Store) ListProfiles(_ context.Context, f domain.ProfileFilter) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Profile
	for _, p := range s.profiles {
		if len(f.NeighborhoodTags) > 0 && !contains(f.NeighborhoodTags, p.NeighborhoodTag) {
			continue
		}
		p.Points = s.scoreLocked(p.ID)
		out = append(out, p)
	}
	sortByTimeDesc(out, func(p domain.Profile) time.Time { return p.CreatedAt })
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

func (s *Store) SetNeighborhood(_ context.Context, profileID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[profileID]
	if !ok {
		return domain.ErrNotFound
	}
	p.NeighborhoodTag = tag
	p.UpdatedAt = time.Now()
	s.profiles[profileID] = p
	return nil
}

func (s *Store) InsertAction(_ context.Context, a domain.Action) (domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[a.ProfileID]; !ok {
		return domain.Action{}, domain.ErrNotFound
	}
	a.ID = newID()
	a.CreatedAt = time.Now()
	s.actions = append(s.actions, a)
	return a, nil
}

func (s *Store) ListActions(_ context.Context, f domain.ActionFilter) ([]domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Action
	for i := len(s.actions) - 1; i >= 0; i-- {
		a := s.actions[i]
		if f.ProfileID != "" && a.ProfileID != f.ProfileID {
			continue
		}
		out = append(out, a)
	}
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

func (s *Store) AddNeighborhood(_ context.Context, n domain.Neighborhood) (domain.Neighborhood, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.neighborhoods[n.Tag]; ok {
		return domain.Neighborhood{}, domain.ErrAlreadyExists
	}
	n.ID = newID()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	s.neighborhoods[n.Tag] = n
	return n, nil
}

func (s *Store) GetNeighborhood(_ context.Context, tag string) (domain.Neighborhood, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.neighborhoods[tag]
	if !ok {
		return domain.Neighborhood{}, domain.ErrNotFound
	}
	return n, nil
}

func (s *Store) ListNeighborhoods(_ context.Context) ([]domain.Neighborhood, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Neighborhood, 0, len(s.neighborhoods))
	for _, n := range s.neighborhoods {
		n.Points = 0
		for _, p := range s.profiles {
			if p.NeighborhoodTag == n.Tag {
				n.Points += s.scoreLocked(p.ID)
			}
		}
		out = append(out, n)
	}
	// Tag order matches the postgres adapter.
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

// scoreLocked sums points over the trailing 30 days. Caller holds the lock.
func (s *Store) scoreLocked(profileID string) int {
	cutoff := time.Now().AddDate(0, 0, -30)
	total := 0
	for _, a := range s.actions {
		if a.ProfileID == profileID && a.CreatedAt.After(cutoff) {
			total += a.Points
		}
	}
	return total
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
