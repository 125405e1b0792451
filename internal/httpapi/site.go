package httpapi

import (
	"encoding/xml"
	"net/http"
	"time"
)

func registerSiteRoutes(mux *http.ServeMux, api *API) {
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\nSitemap: " + api.BaseURL + "/sitemap.xml\n"))
	})

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		handleSitemap(w, r, api)
	})

	mux.HandleFunc("/api/sso", func(w http.ResponseWriter, r *http.Request) {
		handleSSO(w, r, api)
	})

	mux.HandleFunc("/api/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		handleBootstrap(w, r, api)
	})
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type sitemapDoc struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func handleSitemap(w http.ResponseWriter, r *http.Request, api *API) {
	hoods, err := api.Neighborhoods.ListNeighborhoods(r.Context())
	if err != nil {
		api.Logger.Error("sitemap query failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	doc := sitemapDoc{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []sitemapURL{{Loc: api.BaseURL + "/"}},
	}
	for _, n := range hoods {
		doc.URLs = append(doc.URLs, sitemapURL{Loc: api.BaseURL + "/neighborhoods/" + n.Tag})
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(doc)
}

// handleSSO returns the Disqus-style auth string for the current user,
// or the signed anonymous payload when nobody is logged in.
func handleSSO(w http.ResponseWriter, r *http.Request, api *API) {
	if !api.SSO.Enabled() {
		respondError(w, http.StatusNotFound, "sso not configured")
		return
	}
	if p, err := api.currentProfile(r); err == nil {
		respondJSON(w, http.StatusOK, map[string]string{"auth": api.SSO.Sign(&p, time.Now())})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"auth": api.SSO.Sign(nil, time.Now())})
}

// handleBootstrap bundles the initial page payload the client app needs:
// all neighborhoods, the current user if any, and the SSO string.
func handleBootstrap(w http.ResponseWriter, r *http.Request, api *API) {
	hoods, err := api.Neighborhoods.ListNeighborhoods(r.Context())
	if err != nil {
		api.Logger.Error("bootstrap query failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	hoodJSON := make([]neighborhoodJSON, 0, len(hoods))
	for _, n := range hoods {
		hoodJSON = append(hoodJSON, toNeighborhoodJSON(n))
	}

	payload := map[string]any{
		"neighborhoods": hoodJSON,
		"user":          nil,
		"providers":     api.Social.Providers(),
	}
	if p, err := api.currentProfile(r); err == nil {
		payload["user"] = toProfileJSON(p, true)
		if api.SSO.Enabled() {
			payload["sso"] = api.SSO.Sign(&p, time.Now())
		}
	} else if api.SSO.Enabled() {
		payload["sso"] = api.SSO.Sign(nil, time.Now())
	}
	respondJSON(w, http.StatusOK, payload)
}
