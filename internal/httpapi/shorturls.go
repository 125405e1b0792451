package httpapi

import (
	"encoding/base32"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"phillyrising/domain"
	"phillyrising/internal/validate"
)

// shortCode derives a 7-character code from a fresh UUID.
func shortCode() string {
	id := uuid.New()
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(id[:])
	return strings.ToLower(enc[:7])
}

func registerShortURLRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/api/shorturls", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleShortURLList(w, r, api)
		case http.MethodPost:
			handleShortURLCreate(w, r, api)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/s/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		code := strings.TrimPrefix(r.URL.Path, "/s/")
		if code == "" {
			http.NotFound(w, r)
			return
		}
		s, err := api.ShortURLs.ResolveShortURL(r.Context(), code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			api.Logger.Error("short url resolve failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		http.Redirect(w, r, s.TargetURL, http.StatusFound)
	})
}

func handleShortURLList(w http.ResponseWriter, r *http.Request, api *API) {
	urls, err := api.ShortURLs.ListShortURLs(r.Context(), 0)
	if err != nil {
		api.Logger.Error("list short urls failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	type entry struct {
		Code     string `json:"code"`
		ShortURL string `json:"short_url"`
		Target   string `json:"target_url"`
		Hits     int64  `json:"hits"`
	}
	out := make([]entry, 0, len(urls))
	for _, s := range urls {
		out = append(out, entry{Code: s.Code, ShortURL: api.BaseURL + "/s/" + s.Code, Target: s.TargetURL, Hits: s.Hits})
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
}

func handleShortURLCreate(w http.ResponseWriter, r *http.Request, api *API) {
	p, err := api.currentProfile(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validate.URL(payload.URL); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var created domain.ShortURL
	for attempt := 0; attempt < 3; attempt++ {
		created, err = api.ShortURLs.CreateShortURL(r.Context(), shortCode(), payload.URL)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		api.Logger.Error("create short url failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.record(r, domain.RevisionShortURL, created.ID, domain.RevisionCreate, p.Username, created)
	respondJSON(w, http.StatusCreated, map[string]any{
		"code":       created.Code,
		"short_url":  api.BaseURL + "/s/" + created.Code,
		"target_url": created.TargetURL,
	})
}
