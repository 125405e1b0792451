package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"phillyrising/domain"
)

func registerUserRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handleUserList(w, r, api)
	})

	mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
		switch {
		case rest == "me" && r.Method == http.MethodGet:
			handleCurrentUser(w, r, api)
		case rest == "me/neighborhood" && r.Method == http.MethodPost:
			handleChooseNeighborhood(w, r, api)
		case r.Method == http.MethodGet:
			handleUserGet(w, r, api, rest)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func handleUserList(w http.ResponseWriter, r *http.Request, api *API) {
	offset, limit, ok := listRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid offset or limit parameter")
		return
	}
	profiles, err := api.Profiles.ListProfiles(r.Context(), domain.ProfileFilter{
		NeighborhoodTags: r.URL.Query()["neighborhood"],
		Offset:           offset,
		Limit:            limit,
	})
	if err != nil {
		api.Logger.Error("list users failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]profileJSON, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileJSON(p, false))
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
}

func handleUserGet(w http.ResponseWriter, r *http.Request, api *API, username string) {
	if username == "" {
		respondError(w, http.StatusBadRequest, "missing username")
		return
	}
	p, err := api.Profiles.GetProfileByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		api.Logger.Error("get user failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Render the private view when the viewer looks at themselves.
	private := false
	if viewer, err := api.currentProfile(r); err == nil && viewer.ID == p.ID {
		private = true
	}
	respondJSON(w, http.StatusOK, toProfileJSON(p, private))
}

func handleCurrentUser(w http.ResponseWriter, r *http.Request, api *API) {
	p, err := api.currentProfile(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	respondJSON(w, http.StatusOK, toProfileJSON(p, true))
}

func handleChooseNeighborhood(w http.ResponseWriter, r *http.Request, api *API) {
	p, err := api.currentProfile(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var payload struct {
		Tag string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Tag) == "" {
		respondError(w, http.StatusBadRequest, "tag is required")
		return
	}
	tag := strings.TrimSpace(payload.Tag)
	if _, err := api.Neighborhoods.GetNeighborhood(r.Context(), tag); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusBadRequest, "unknown neighborhood")
			return
		}
		api.Logger.Error("neighborhood lookup failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := api.Profiles.SetNeighborhood(r.Context(), p.ID, tag); err != nil {
		api.Logger.Error("set neighborhood failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	p.NeighborhoodTag = tag
	api.record(r, domain.RevisionProfile, p.ID, domain.RevisionUpdate, p.Username, p)
	respondJSON(w, http.StatusOK, toProfileJSON(p, true))
}
