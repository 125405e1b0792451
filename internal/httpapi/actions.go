package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"phillyrising/domain"
)

type actionJSON struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Type      string    `json:"type"`
	Points    int       `json:"points"`
	ItemID    string    `json:"item_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toActionJSON(a domain.Action) actionJSON {
	return actionJSON{
		ID:        a.ID,
		ProfileID: a.ProfileID,
		Type:      a.Type,
		Points:    a.Points,
		ItemID:    a.ItemID,
		Detail:    a.Detail,
		CreatedAt: a.CreatedAt,
	}
}

func registerActionRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/api/actions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleActionList(w, r, api)
		case http.MethodPost:
			handleActionCreate(w, r, api)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func handleActionList(w http.ResponseWriter, r *http.Request, api *API) {
	offset, limit, ok := listRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid offset or limit parameter")
		return
	}
	filter := domain.ActionFilter{Offset: offset, Limit: limit}
	if username := r.URL.Query().Get("user"); username != "" {
		p, err := api.Profiles.GetProfileByUsername(r.Context(), username)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				respondError(w, http.StatusNotFound, "user not found")
				return
			}
			api.Logger.Error("user lookup failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		filter.ProfileID = p.ID
	}
	actions, err := api.Profiles.ListActions(r.Context(), filter)
	if err != nil {
		api.Logger.Error("list actions failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]actionJSON, 0, len(actions))
	for _, a := range actions {
		out = append(out, toActionJSON(a))
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
}

func handleActionCreate(w http.ResponseWriter, r *http.Request, api *API) {
	p, err := api.currentProfile(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var payload struct {
		Type   string `json:"type"`
		ItemID string `json:"item_id"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	actionType := strings.TrimSpace(payload.Type)
	if actionType == "" {
		respondError(w, http.StatusBadRequest, "type is required")
		return
	}
	a, err := api.Profiles.InsertAction(r.Context(), domain.Action{
		ProfileID: p.ID,
		Type:      actionType,
		Points:    domain.PointsFor(actionType),
		ItemID:    strings.TrimSpace(payload.ItemID),
		Detail:    strings.TrimSpace(payload.Detail),
	})
	if err != nil {
		api.Logger.Error("create action failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, toActionJSON(a))
}
