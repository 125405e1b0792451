package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"phillyrising/domain"
)

type neighborhoodJSON struct {
	ID          string    `json:"id"`
	Tag         string    `json:"tag"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"created_at"`
}

func toNeighborhoodJSON(n domain.Neighborhood) neighborhoodJSON {
	return neighborhoodJSON{
		ID:          n.ID,
		Tag:         n.Tag,
		Name:        n.Name,
		Description: n.Description,
		Lat:         n.Lat,
		Lng:         n.Lng,
		Points:      n.Points,
		CreatedAt:   n.CreatedAt,
	}
}

func registerNeighborhoodRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/api/neighborhoods", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		hoods, err := api.Neighborhoods.ListNeighborhoods(r.Context())
		if err != nil {
			api.Logger.Error("list neighborhoods failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]neighborhoodJSON, 0, len(hoods))
		for _, n := range hoods {
			out = append(out, toNeighborhoodJSON(n))
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
	})

	mux.HandleFunc("/api/neighborhoods/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		tag := strings.TrimPrefix(r.URL.Path, "/api/neighborhoods/")
		if tag == "" {
			respondError(w, http.StatusBadRequest, "missing neighborhood tag")
			return
		}
		n, err := api.Neighborhoods.GetNeighborhood(r.Context(), tag)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				respondError(w, http.StatusNotFound, "neighborhood not found")
				return
			}
			api.Logger.Error("get neighborhood failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, http.StatusOK, toNeighborhoodJSON(n))
	})
}
