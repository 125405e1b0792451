package domain

import (
	"encoding/json"
	"time"
)

// Neighborhood is a geographic community that users join and that feeds
// can be scoped to. Points is the trailing 30-day action total across all
// members and is only populated by leaderboard queries.
type Neighborhood struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tag         string
	Name        string
	Description string
	Lat         float64
	Lng         float64
	Points      int
}

// Profile is a user account provisioned through a social identity
// provider. Points carries the trailing 30-day score when the profile
// comes from a leaderboard query, zero otherwise.
type Profile struct {
	ID              string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Username        string
	Email           string
	AvatarURL       string
	Provider        string
	ProviderUID     string
	NeighborhoodTag string
	Points          int
}

// Action is a point-earning event recorded against a profile.
type Action struct {
	ID        string
	CreatedAt time.Time
	ProfileID string
	Type      string
	Points    int
	ItemID    string
	Detail    string
}

// DefaultActionPoints is earned by action types without an explicit value.
const DefaultActionPoints = 1

var actionPoints = map[string]int{
	"attend-event":     20,
	"share-item":       5,
	"complete-profile": 10,
}

// PointsFor returns the point value awarded for an action type.
func PointsFor(actionType string) int {
	if p, ok := actionPoints[actionType]; ok {
		return p
	}
	return DefaultActionPoints
}

// Feed categories.
const (
	CategoryEvents   = "events"
	CategoryNews     = "news"
	CategoryMeetings = "meetings"
)

// Feed is an external RSS/Atom source polled by the ingestion scheduler.
// ETag and LastModified hold the validators from the last successful
// fetch and are sent back as conditional-GET headers. Failures counts
// consecutive fetch errors and drives the poll backoff.
type Feed struct {
	ID              string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Name            string
	URL             string
	Category        string
	NeighborhoodTag string
	ETag            string
	LastModified    string
	Failures        int
	LastPolledAt    time.Time
	LastSuccessAt   time.Time
}

// Item is a content entry ingested from a feed. GUID is unique per feed
// and is the dedup key; it falls back to the item link when the source
// does not publish one.
type Item struct {
	ID              string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FeedID          string
	GUID            string
	Title           string
	Link            string
	Summary         string
	Category        string
	NeighborhoodTag string
	PublishedAt     time.Time
}

// FetchedItem is a simplified representation returned by feed fetchers.
type FetchedItem struct {
	GUID        string
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
}

// FetchResult is the outcome of one conditional fetch of a feed.
type FetchResult struct {
	NotModified  bool
	ETag         string
	LastModified string
	Items        []FetchedItem
}

// PollOutcome records how a poll of a feed ended so the repository can
// update validators and the failure counter.
type PollOutcome struct {
	Success      bool
	NotModified  bool
	ETag         string
	LastModified string
}

// ShortURL maps a short code to a target URL.
type ShortURL struct {
	ID        string
	CreatedAt time.Time
	Code      string
	TargetURL string
	Hits      int64
}

// Revision kinds.
const (
	RevisionProfile  = "profile"
	RevisionFeed     = "feed"
	RevisionShortURL = "shorturl"
)

// Revision operations.
const (
	RevisionCreate = "create"
	RevisionUpdate = "update"
	RevisionDelete = "delete"
)

// Revision is one entry in the append-only audit trail: a JSON snapshot
// of an entity taken when it was written.
type Revision struct {
	ID        string
	CreatedAt time.Time
	Kind      string
	EntityID  string
	Op        string
	Actor     string
	Snapshot  json.RawMessage
}

// Session is a bearer token issued after social login.
type Session struct {
	Token     string
	ProfileID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
