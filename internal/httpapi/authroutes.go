package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"phillyrising/domain"
	"phillyrising/internal/auth"
)

func registerAuthRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/auth/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/auth/")
		if rest == "logout" {
			handleLogout(w, r, api)
			return
		}
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		provider, action := parts[0], parts[1]
		switch action {
		case "login":
			handleLogin(w, r, api, provider)
		case "callback":
			handleCallback(w, r, api, provider)
		default:
			http.NotFound(w, r)
		}
	})
}

func handleLogin(w http.ResponseWriter, r *http.Request, api *API, provider string) {
	neighborhood := r.URL.Query().Get("neighborhood")
	loginURL, err := api.Social.LoginURL(r.Context(), provider, neighborhood)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			respondError(w, http.StatusNotFound, "unknown provider")
			return
		}
		if errors.Is(err, auth.ErrUnknownNeighborhood) {
			respondError(w, http.StatusBadRequest, "unknown neighborhood")
			return
		}
		api.Logger.Error("login url failed", "provider", provider, "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.Redirect(w, r, loginURL, http.StatusFound)
}

func handleCallback(w http.ResponseWriter, r *http.Request, api *API, provider string) {
	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		respondError(w, http.StatusBadRequest, "provider denied login: "+errMsg)
		return
	}
	state, code := q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		respondError(w, http.StatusBadRequest, "missing state or code")
		return
	}
	profile, session, err := api.Social.HandleCallback(r.Context(), provider, state, code)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			respondError(w, http.StatusNotFound, "unknown provider")
			return
		}
		api.Logger.Warn("social callback failed", "provider", provider, "err", err)
		respondError(w, http.StatusUnauthorized, "login failed")
		return
	}
	api.record(r, domain.RevisionProfile, profile.ID, domain.RevisionUpdate, profile.Username, profile)
	respondJSON(w, http.StatusOK, map[string]any{
		"user": toProfileJSON(profile, true),
		"token": map[string]any{
			"access_token": session.Token,
			"token_type":   "bearer",
			"expires_at":   session.ExpiresAt,
		},
	})
}

func handleLogout(w http.ResponseWriter, r *http.Request, api *API) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := api.Sessions.DeleteSession(r.Context(), token); err != nil {
		api.Logger.Error("logout failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
