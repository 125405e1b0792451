package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phillyrising/adapter/memory"
	"phillyrising/domain"
	"phillyrising/internal/auth"
	"phillyrising/internal/config"
)

type testEnv struct {
	store *memory.Store
	api   *API
	mux   *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	social := auth.NewSocial(config.AuthConfig{
		SessionTTL:  time.Hour,
		StateSecret: "test-secret",
	}, "http://app.test", store, store, store, logger)
	api := &API{
		Logger:        logger,
		BaseURL:       "http://app.test",
		Feeds:         store,
		Profiles:      store,
		Neighborhoods: store,
		ShortURLs:     store,
		Revisions:     store,
		Sessions:      store,
		Social:        social,
	}
	mux := http.NewServeMux()
	Register(mux, api)
	return &testEnv{store: store, api: api, mux: mux}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedUser(t *testing.T, username, hood string) (domain.Profile, string) {
	t.Helper()
	ctx := context.Background()
	p, err := e.store.UpsertProfile(ctx, domain.Profile{
		Username:        username,
		Email:           username + "@example.com",
		Provider:        "google",
		ProviderUID:     "uid-" + username,
		NeighborhoodTag: hood,
	})
	require.NoError(t, err)
	s, err := auth.IssueSession(ctx, e.store, p.ID, time.Hour)
	require.NoError(t, err)
	return p, s.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestNeighborhoodEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.AddNeighborhood(ctx, domain.Neighborhood{Tag: "fairhill", Name: "Fairhill"})
	require.NoError(t, err)
	_, err = env.store.AddNeighborhood(ctx, domain.Neighborhood{Tag: "eastern-north", Name: "Eastern North"})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/neighborhoods", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []neighborhoodJSON `json:"data"`
		Count int                `json:"count"`
	}
	decodeBody(t, rec, &list)
	require.Equal(t, 2, list.Count)
	// Sorted by tag.
	assert.Equal(t, "eastern-north", list.Data[0].Tag)
	assert.Equal(t, "fairhill", list.Data[1].Tag)

	rec = env.do(t, http.MethodGet, "/api/neighborhoods/fairhill", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one neighborhoodJSON
	decodeBody(t, rec, &one)
	assert.Equal(t, "Fairhill", one.Name)

	rec = env.do(t, http.MethodGet, "/api/neighborhoods/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/neighborhoods", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUserListFilterAndPrivacy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.AddNeighborhood(ctx, domain.Neighborhood{Tag: "fairhill", Name: "Fairhill"})
	require.NoError(t, err)

	_, adaToken := env.seedUser(t, "ada", "fairhill")
	env.seedUser(t, "grace", "")

	rec := env.do(t, http.MethodGet, "/api/users", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []profileJSON `json:"data"`
		Count int           `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 2, list.Count)
	for _, p := range list.Data {
		// Public view never leaks email or provider.
		assert.Empty(t, p.Email)
		assert.Empty(t, p.Provider)
	}

	rec = env.do(t, http.MethodGet, "/api/users?neighborhood=fairhill", "", "")
	decodeBody(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "ada", list.Data[0].Username)

	rec = env.do(t, http.MethodGet, "/api/users?offset=bogus", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Looking at yourself renders the private view.
	rec = env.do(t, http.MethodGet, "/api/users/ada", adaToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var self profileJSON
	decodeBody(t, rec, &self)
	assert.Equal(t, "ada@example.com", self.Email)
	assert.Equal(t, "google", self.Provider)

	rec = env.do(t, http.MethodGet, "/api/users/ada", "", "")
	self = profileJSON{}
	decodeBody(t, rec, &self)
	assert.Empty(t, self.Email)

	rec = env.do(t, http.MethodGet, "/api/users/nobody", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentUserAndChooseNeighborhood(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.AddNeighborhood(ctx, domain.Neighborhood{Tag: "fairhill", Name: "Fairhill"})
	require.NoError(t, err)
	p, token := env.seedUser(t, "ada", "")

	rec := env.do(t, http.MethodGet, "/api/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me profileJSON
	decodeBody(t, rec, &me)
	assert.Equal(t, "ada", me.Username)
	assert.Empty(t, me.Neighborhood)

	rec = env.do(t, http.MethodPost, "/api/users/me/neighborhood", token, `{"tag":"nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users/me/neighborhood", token, `{"tag":"fairhill"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &me)
	assert.Equal(t, "fairhill", me.Neighborhood)

	got, err := env.store.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "fairhill", got.NeighborhoodTag)

	// The change left an audit trail.
	revs, err := env.store.ListRevisions(ctx, domain.RevisionProfile, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, domain.RevisionUpdate, revs[0].Op)
	assert.Equal(t, "ada", revs[0].Actor)
}

func TestActionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada", "")
	env.seedUser(t, "grace", "")

	rec := env.do(t, http.MethodPost, "/api/actions", "", `{"type":"share-item"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/actions", token, `{"type":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/actions", token, `{"type":"attend-event","detail":"cleanup day"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created actionJSON
	decodeBody(t, rec, &created)
	assert.Equal(t, domain.PointsFor("attend-event"), created.Points)
	assert.Equal(t, "cleanup day", created.Detail)

	rec = env.do(t, http.MethodPost, "/api/actions", token, `{"type":"something-custom"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeBody(t, rec, &created)
	assert.Equal(t, 1, created.Points)

	// Earned points show up on the profile.
	rec = env.do(t, http.MethodGet, "/api/users/me", token, "")
	var me profileJSON
	decodeBody(t, rec, &me)
	assert.Equal(t, domain.PointsFor("attend-event")+1, me.Points)

	rec = env.do(t, http.MethodGet, "/api/actions?user=ada", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []actionJSON `json:"data"`
		Count int          `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 2, list.Count)

	rec = env.do(t, http.MethodGet, "/api/actions?user=grace", "", "")
	decodeBody(t, rec, &list)
	assert.Equal(t, 0, list.Count)

	rec = env.do(t, http.MethodGet, "/api/actions?user=nobody", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItemListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f, err := env.store.AddFeed(ctx, domain.Feed{Name: "news", URL: "http://feeds.test/news", Category: domain.CategoryNews, NeighborhoodTag: "fairhill"})
	require.NoError(t, err)
	other, err := env.store.AddFeed(ctx, domain.Feed{Name: "events", URL: "http://feeds.test/events", Category: domain.CategoryEvents})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, env.store.UpsertItem(ctx, domain.Item{FeedID: f.ID, GUID: "a", Title: "A", Category: domain.CategoryNews, NeighborhoodTag: "fairhill", PublishedAt: now}))
	require.NoError(t, env.store.UpsertItem(ctx, domain.Item{FeedID: f.ID, GUID: "b", Title: "B", Category: domain.CategoryNews, NeighborhoodTag: "fairhill", PublishedAt: now.Add(-time.Hour)}))
	require.NoError(t, env.store.UpsertItem(ctx, domain.Item{FeedID: other.ID, GUID: "c", Title: "C", Category: domain.CategoryEvents, PublishedAt: now.Add(-2 * time.Hour)}))

	var list struct {
		Data  []itemJSON `json:"data"`
		Count int        `json:"count"`
	}

	rec := env.do(t, http.MethodGet, "/api/items", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	require.Equal(t, 3, list.Count)
	// Newest first.
	assert.Equal(t, "A", list.Data[0].Title)

	rec = env.do(t, http.MethodGet, "/api/items?category=events", "", "")
	decodeBody(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "C", list.Data[0].Title)

	rec = env.do(t, http.MethodGet, "/api/items?neighborhood=fairhill", "", "")
	decodeBody(t, rec, &list)
	assert.Equal(t, 2, list.Count)

	rec = env.do(t, http.MethodGet, "/api/items?feed=news&limit=1", "", "")
	decodeBody(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "A", list.Data[0].Title)

	rec = env.do(t, http.MethodGet, "/api/items?feed=news&offset=1", "", "")
	decodeBody(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "B", list.Data[0].Title)

	rec = env.do(t, http.MethodGet, "/api/items?feed=missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShortURLLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada", "")

	rec := env.do(t, http.MethodPost, "/api/shorturls", "", `{"url":"http://example.com/x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/shorturls", token, `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/shorturls", token, `{"url":"http://example.com/long/path"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Code     string `json:"code"`
		ShortURL string `json:"short_url"`
		Target   string `json:"target_url"`
	}
	decodeBody(t, rec, &created)
	assert.Len(t, created.Code, 7)
	assert.Equal(t, "http://app.test/s/"+created.Code, created.ShortURL)

	rec = env.do(t, http.MethodGet, "/s/"+created.Code, "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://example.com/long/path", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/s/"+created.Code, "", "")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/shorturls", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []struct {
			Code string `json:"code"`
			Hits int64  `json:"hits"`
		} `json:"data"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(2), list.Data[0].Hits)

	rec = env.do(t, http.MethodGet, "/s/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSSOEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Not configured yet.
	rec := env.do(t, http.MethodGet, "/api/sso", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.api.SSO = auth.DisqusSigner{SecretKey: "s3cret"}
	_, token := env.seedUser(t, "ada", "")

	rec = env.do(t, http.MethodGet, "/api/sso", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	decodeBody(t, rec, &out)
	parts := strings.Split(out["auth"], " ")
	require.Len(t, parts, 3)

	// Anonymous requests still get a (empty-payload) auth string.
	rec = env.do(t, http.MethodGet, "/api/sso", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &out)
	assert.NotEmpty(t, out["auth"])
}

func TestBootstrap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.AddNeighborhood(ctx, domain.Neighborhood{Tag: "fairhill", Name: "Fairhill"})
	require.NoError(t, err)
	_, token := env.seedUser(t, "ada", "fairhill")

	rec := env.do(t, http.MethodGet, "/api/bootstrap", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var anon struct {
		Neighborhoods []neighborhoodJSON `json:"neighborhoods"`
		User          *profileJSON       `json:"user"`
	}
	decodeBody(t, rec, &anon)
	require.Len(t, anon.Neighborhoods, 1)
	assert.Nil(t, anon.User)

	rec = env.do(t, http.MethodGet, "/api/bootstrap", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &anon)
	require.NotNil(t, anon.User)
	assert.Equal(t, "ada", anon.User.Username)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "ada", "")

	rec := env.do(t, http.MethodPost, "/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSiteEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.AddNeighborhood(ctx, domain.Neighborhood{Tag: "fairhill", Name: "Fairhill"})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/robots.txt", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: http://app.test/sitemap.xml")

	rec = env.do(t, http.MethodGet, "/sitemap.xml", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>http://app.test/neighborhoods/fairhill</loc>")
}

func TestSocialLoginFlow(t *testing.T) {
	// A fake identity provider standing in for the real endpoints.
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"bearer"}`))
		case "/userinfo":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"uid-1","name":"Ada L","email":"ada@example.com"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer idp.Close()

	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.AddNeighborhood(ctx, domain.Neighborhood{Tag: "fairhill", Name: "Fairhill"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	env.api.Social = auth.NewSocial(config.AuthConfig{
		SessionTTL:  time.Hour,
		StateSecret: "test-secret",
		Providers: map[string]config.ProviderConfig{
			"acme": {
				ClientID:     "client",
				ClientSecret: "secret",
				AuthURL:      idp.URL + "/authorize",
				TokenURL:     idp.URL + "/token",
				UserInfoURL:  idp.URL + "/userinfo",
				Scopes:       []string{"basic"},
			},
		},
	}, "http://app.test", env.store, env.store, env.store, logger)

	rec := env.do(t, http.MethodGet, "/auth/acme/login?neighborhood=fairhill", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, idp.URL+"/authorize", loc.Scheme+"://"+loc.Host+loc.Path)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	rec = env.do(t, http.MethodGet, "/auth/acme/callback?state="+url.QueryEscape(state)+"&code=grant", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		User  profileJSON `json:"user"`
		Token struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		} `json:"token"`
	}
	decodeBody(t, rec, &out)
	assert.Equal(t, "Ada L", out.User.Username)
	assert.Equal(t, "ada@example.com", out.User.Email)
	// The neighborhood picked before login stuck.
	assert.Equal(t, "fairhill", out.User.Neighborhood)
	assert.Equal(t, "bearer", out.Token.TokenType)

	// The minted token works as a bearer session.
	rec = env.do(t, http.MethodGet, "/api/users/me", out.Token.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/acme/callback?state=forged&code=grant", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/nope/login", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A crafted login link cannot smuggle an unregistered neighborhood
	// into the signed state.
	rec = env.do(t, http.MethodGet, "/auth/acme/login?neighborhood=atlantis", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
