package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"phillyrising/domain"
)

// IssueSession mints a bearer token for a profile and stores it.
func IssueSession(ctx context.Context, sessions domain.SessionRepository, profileID string, ttl time.Duration) (domain.Session, error) {
	now := time.Now()
	s := domain.Session{
		Token:     uuid.New().String(),
		ProfileID: profileID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := sessions.CreateSession(ctx, s); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

var ErrNoSession = errors.New("no valid session")

// SessionFromRequest resolves the Authorization bearer token to a live
// session.
func SessionFromRequest(r *http.Request, sessions domain.SessionRepository) (domain.Session, error) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return domain.Session{}, ErrNoSession
	}
	s, err := sessions.LookupSession(r.Context(), token)
	if err != nil {
		return domain.Session{}, ErrNoSession
	}
	return s, nil
}
