package httpapi

import (
	"errors"
	"net/http"
	"time"

	"phillyrising/domain"
)

type itemJSON struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Summary      string    `json:"summary,omitempty"`
	Category     string    `json:"category"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
}

func toItemJSON(it domain.Item) itemJSON {
	return itemJSON{
		ID:           it.ID,
		Title:        it.Title,
		Link:         it.Link,
		Summary:      it.Summary,
		Category:     it.Category,
		Neighborhood: it.NeighborhoodTag,
		PublishedAt:  it.PublishedAt,
	}
}

func registerItemRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		offset, limit, ok := listRange(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid offset or limit parameter")
			return
		}
		filter := domain.ItemFilter{
			NeighborhoodTag: r.URL.Query().Get("neighborhood"),
			Category:        r.URL.Query().Get("category"),
			Offset:          offset,
			Limit:           limit,
		}
		if feedName := r.URL.Query().Get("feed"); feedName != "" {
			f, err := api.Feeds.GetFeedByName(r.Context(), feedName)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					respondError(w, http.StatusNotFound, "feed not found")
					return
				}
				api.Logger.Error("feed lookup failed", "err", err)
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}
			filter.FeedID = f.ID
		}
		items, err := api.Feeds.ListItems(r.Context(), filter)
		if err != nil {
			api.Logger.Error("list items failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]itemJSON, 0, len(items))
		for _, it := range items {
			out = append(out, toItemJSON(it))
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
	})
}

type feedJSON struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Category      string    `json:"category"`
	Neighborhood  string    `json:"neighborhood,omitempty"`
	Failures      int       `json:"failures"`
	LastPolledAt  time.Time `json:"last_polled_at,omitempty"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func registerFeedRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/api/feeds", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		feeds, err := api.Feeds.ListFeeds(r.Context(), 0)
		if err != nil {
			api.Logger.Error("list feeds failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]feedJSON, 0, len(feeds))
		for _, f := range feeds {
			out = append(out, feedJSON{
				ID:            f.ID,
				Name:          f.Name,
				URL:           f.URL,
				Category:      f.Category,
				Neighborhood:  f.NeighborhoodTag,
				Failures:      f.Failures,
				LastPolledAt:  f.LastPolledAt,
				LastSuccessAt: f.LastSuccessAt,
				CreatedAt:     f.CreatedAt,
			})
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
	})
}
