package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by repository implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// ItemFilter narrows item listings.
type ItemFilter struct {
	FeedID          string
	NeighborhoodTag string
	Category        string
	Offset          int
	Limit           int
}

// ProfileFilter narrows profile listings.
type ProfileFilter struct {
	NeighborhoodTags []string
	Offset           int
	Limit            int
}

// ActionFilter narrows action listings.
type ActionFilter struct {
	ProfileID string
	Offset    int
	Limit     int
}

// FeedRepository is the persistence port for feeds and ingested items.
type FeedRepository interface {
	AddFeed(ctx context.Context, f Feed) (Feed, error)
	DeleteFeed(ctx context.Context, name string) (int64, error)
	ListFeeds(ctx context.Context, limit int) ([]Feed, error)
	GetFeedByName(ctx context.Context, name string) (Feed, error)

	// GetStaleFeeds returns feeds due for polling: feeds whose last poll
	// is older than the base interval multiplied by the failure backoff.
	GetStaleFeeds(ctx context.Context, interval time.Duration, limit int) ([]Feed, error)
	MarkFeedPolled(ctx context.Context, feedID string, out PollOutcome) error

	UpsertItem(ctx context.Context, it Item) error
	ListItems(ctx context.Context, f ItemFilter) ([]Item, error)
}

// ProfileRepository is the persistence port for user profiles and actions.
type ProfileRepository interface {
	// UpsertProfile provisions or refreshes a profile keyed on
	// (provider, provider UID), as happens on every social login.
	UpsertProfile(ctx context.Context, p Profile) (Profile, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (Profile, error)
	ListProfiles(ctx context.Context, f ProfileFilter) ([]Profile, error)
	SetNeighborhood(ctx context.Context, profileID, tag string) error

	InsertAction(ctx context.Context, a Action) (Action, error)
	ListActions(ctx context.Context, f ActionFilter) ([]Action, error)
}

// NeighborhoodRepository is the persistence port for neighborhoods.
type NeighborhoodRepository interface {
	AddNeighborhood(ctx context.Context, n Neighborhood) (Neighborhood, error)
	GetNeighborhood(ctx context.Context, tag string) (Neighborhood, error)
	// ListNeighborhoods returns all neighborhoods with their trailing
	// 30-day point totals populated.
	ListNeighborhoods(ctx context.Context) ([]Neighborhood, error)
}

// ShortURLRepository is the persistence port for short links.
type ShortURLRepository interface {
	CreateShortURL(ctx context.Context, code, target string) (ShortURL, error)
	// ResolveShortURL returns the mapping and increments its hit count.
	ResolveShortURL(ctx context.Context, code string) (ShortURL, error)
	ListShortURLs(ctx context.Context, limit int) ([]ShortURL, error)
}

// RevisionRepository is the append-only audit trail.
type RevisionRepository interface {
	RecordRevision(ctx context.Context, r Revision) error
	ListRevisions(ctx context.Context, kind, entityID string, limit int) ([]Revision, error)
}

// SessionRepository stores bearer sessions issued on login.
type SessionRepository interface {
	CreateSession(ctx context.Context, s Session) error
	LookupSession(ctx context.Context, token string) (Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Fetcher fetches and parses RSS/Atom feeds, honoring the feed's cached
// validators for conditional requests.
type Fetcher interface {
	Fetch(ctx context.Context, f Feed) (FetchResult, error)
}

// Aggregator exposes application-level controls for background ingestion.
type Aggregator interface {
	Start(ctx context.Context) error
	Stop() error

	SetInterval(d time.Duration)
	Resize(workers int) error
	CurrentInterval() time.Duration
	CurrentWorkers() int
}
