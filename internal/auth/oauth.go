// Package auth implements delegated login against third-party identity
// providers, bearer sessions, and the Disqus-style SSO payload.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"phillyrising/domain"
	"phillyrising/internal/config"
)

// Identity is what we learn about a user from a provider's userinfo
// endpoint.
type Identity struct {
	UID       string
	Username  string
	Email     string
	AvatarURL string
}

type provider struct {
	name        string
	conf        *oauth2.Config
	userInfoURL string
}

// Known endpoints for providers that don't configure their own.
var defaultEndpoints = map[string]config.ProviderConfig{
	"google": {
		AuthURL:     "https://accounts.google.com/o/oauth2/auth",
		TokenURL:    "https://oauth2.googleapis.com/token",
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		Scopes:      []string{"openid", "email", "profile"},
	},
	"facebook": {
		AuthURL:     "https://www.facebook.com/v18.0/dialog/oauth",
		TokenURL:    "https://graph.facebook.com/v18.0/oauth/access_token",
		UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email,picture",
		Scopes:      []string{"email", "public_profile"},
	},
}

var (
	ErrUnknownProvider     = errors.New("unknown auth provider")
	ErrUnknownNeighborhood = errors.New("unknown neighborhood")
)

// Social drives the OAuth2 code flow and provisions profiles on callback.
type Social struct {
	providers     map[string]provider
	stateCodec    *stateCodec
	profiles      domain.ProfileRepository
	sessions      domain.SessionRepository
	neighborhoods domain.NeighborhoodRepository
	sessionTTL    time.Duration
	logger        *slog.Logger
}

func NewSocial(cfg config.AuthConfig, baseURL string, profiles domain.ProfileRepository, sessions domain.SessionRepository, neighborhoods domain.NeighborhoodRepository, logger *slog.Logger) *Social {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Social{
		providers:     map[string]provider{},
		stateCodec:    newStateCodec([]byte(cfg.StateSecret)),
		profiles:      profiles,
		sessions:      sessions,
		neighborhoods: neighborhoods,
		sessionTTL:    cfg.SessionTTL,
		logger:        logger,
	}
	for name, pc := range cfg.Providers {
		if def, ok := defaultEndpoints[name]; ok {
			if pc.AuthURL == "" {
				pc.AuthURL = def.AuthURL
			}
			if pc.TokenURL == "" {
				pc.TokenURL = def.TokenURL
			}
			if pc.UserInfoURL == "" {
				pc.UserInfoURL = def.UserInfoURL
			}
			if len(pc.Scopes) == 0 {
				pc.Scopes = def.Scopes
			}
		}
		s.providers[name] = provider{
			name: name,
			conf: &oauth2.Config{
				ClientID:     pc.ClientID,
				ClientSecret: pc.ClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  pc.AuthURL,
					TokenURL: pc.TokenURL,
				},
				RedirectURL: baseURL + "/auth/" + name + "/callback",
				Scopes:      pc.Scopes,
			},
			userInfoURL: pc.UserInfoURL,
		}
	}
	return s
}

// Providers lists the configured provider names.
func (s *Social) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}

// LoginURL builds the provider consent URL. The neighborhood the user
// picked before logging in is checked against the registered set and
// rides along inside the signed state so the callback can apply it
// after provisioning.
func (s *Social) LoginURL(ctx context.Context, providerName, neighborhoodTag string) (string, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return "", ErrUnknownProvider
	}
	if neighborhoodTag != "" {
		if _, err := s.neighborhoods.GetNeighborhood(ctx, neighborhoodTag); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", ErrUnknownNeighborhood
			}
			return "", err
		}
	}
	state, err := s.stateCodec.sign(statePayload{
		Provider:     providerName,
		Neighborhood: neighborhoodTag,
		Expires:      time.Now().Add(15 * time.Minute).Unix(),
	})
	if err != nil {
		return "", err
	}
	return p.conf.AuthCodeURL(state), nil
}

// HandleCallback exchanges the authorization code, resolves the identity,
// provisions the profile, and opens a session.
func (s *Social) HandleCallback(ctx context.Context, providerName, state, code string) (domain.Profile, domain.Session, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return domain.Profile{}, domain.Session{}, ErrUnknownProvider
	}
	payload, err := s.stateCodec.verify(state)
	if err != nil {
		return domain.Profile{}, domain.Session{}, fmt.Errorf("state check: %w", err)
	}
	if payload.Provider != providerName {
		return domain.Profile{}, domain.Session{}, errors.New("state issued for a different provider")
	}

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return domain.Profile{}, domain.Session{}, fmt.Errorf("code exchange: %w", err)
	}
	ident, err := fetchIdentity(ctx, p, token)
	if err != nil {
		return domain.Profile{}, domain.Session{}, err
	}

	profile, err := s.profiles.UpsertProfile(ctx, domain.Profile{
		Username:        ident.Username,
		Email:           ident.Email,
		AvatarURL:       ident.AvatarURL,
		Provider:        providerName,
		ProviderUID:     ident.UID,
		NeighborhoodTag: payload.Neighborhood,
	})
	if err != nil {
		return domain.Profile{}, domain.Session{}, fmt.Errorf("provision profile: %w", err)
	}

	session, err := IssueSession(ctx, s.sessions, profile.ID, s.sessionTTL)
	if err != nil {
		return domain.Profile{}, domain.Session{}, err
	}
	s.logger.Info("social login", "provider", providerName, "username", profile.Username)
	return profile, session, nil
}

func fetchIdentity(ctx context.Context, p provider, token *oauth2.Token) (Identity, error) {
	client := p.conf.Client(ctx, token)
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Identity{}, fmt.Errorf("userinfo: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, err
	}
	return mapIdentity(p.name, body)
}

// mapIdentity pulls the common identity fields out of a provider's
// userinfo JSON. Providers disagree on field names; we try the usual
// ones.
func mapIdentity(providerName string, body []byte) (Identity, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Identity{}, fmt.Errorf("userinfo decode: %w", err)
	}
	ident := Identity{
		UID:       firstString(raw, "id", "sub", "user_id"),
		Username:  firstString(raw, "screen_name", "login", "name"),
		Email:     firstString(raw, "email"),
		AvatarURL: firstString(raw, "picture", "avatar_url", "profile_image_url"),
	}
	// Facebook nests the picture URL.
	if pic, ok := raw["picture"].(map[string]any); ok {
		if data, ok := pic["data"].(map[string]any); ok {
			ident.AvatarURL = firstString(data, "url")
		}
	}
	if ident.UID == "" {
		return Identity{}, errors.New("userinfo has no id")
	}
	if ident.Username == "" {
		ident.Username = providerName + "-" + ident.UID
	}
	return ident, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
