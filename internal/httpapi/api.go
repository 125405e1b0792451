// Package httpapi exposes the persisted entities over REST. Reads are
// public; writes require a bearer session.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"phillyrising/domain"
	"phillyrising/internal/auth"
)

// API bundles everything the handlers need.
type API struct {
	Logger        *slog.Logger
	BaseURL       string
	Feeds         domain.FeedRepository
	Profiles      domain.ProfileRepository
	Neighborhoods domain.NeighborhoodRepository
	ShortURLs     domain.ShortURLRepository
	Revisions     domain.RevisionRepository
	Sessions      domain.SessionRepository
	Social        *auth.Social
	SSO           auth.DisqusSigner
}

// Register attaches all API routes to the provided mux.
func Register(mux *http.ServeMux, api *API) {
	registerNeighborhoodRoutes(mux, api)
	registerUserRoutes(mux, api)
	registerActionRoutes(mux, api)
	registerItemRoutes(mux, api)
	registerFeedRoutes(mux, api)
	registerShortURLRoutes(mux, api)
	registerAuthRoutes(mux, api)
	registerSiteRoutes(mux, api)
}

// currentProfile resolves the request's bearer session to a profile.
func (api *API) currentProfile(r *http.Request) (domain.Profile, error) {
	s, err := auth.SessionFromRequest(r, api.Sessions)
	if err != nil {
		return domain.Profile{}, err
	}
	return api.Profiles.GetProfile(r.Context(), s.ProfileID)
}

// record appends an audit revision; failures are logged, never fatal to
// the request that triggered them.
func (api *API) record(r *http.Request, kind, entityID, op, actor string, entity any) {
	snap, err := json.Marshal(entity)
	if err != nil {
		return
	}
	rev := domain.Revision{Kind: kind, EntityID: entityID, Op: op, Actor: actor, Snapshot: snap}
	if err := api.Revisions.RecordRevision(r.Context(), rev); err != nil {
		api.Logger.Warn("revision write failed", "kind", kind, "entity", entityID, "err", err)
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// listRange parses offset/limit query params with the default page size.
func listRange(r *http.Request) (offset, limit int, ok bool) {
	offset, limit = 0, defaultPageSize
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		limit = n
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit, true
}

// profileJSON is the wire shape for profiles. Email and provider are
// private and only rendered for the profile's own session.
type profileJSON struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `json:"email,omitempty"`
	Provider     string    `json:"provider,omitempty"`
}

func toProfileJSON(p domain.Profile, private bool) profileJSON {
	out := profileJSON{
		ID:           p.ID,
		Username:     p.Username,
		AvatarURL:    p.AvatarURL,
		Neighborhood: p.NeighborhoodTag,
		Points:       p.Points,
		CreatedAt:    p.CreatedAt,
	}
	if private {
		out.Email = p.Email
		out.Provider = p.Provider
	}
	return out
}
