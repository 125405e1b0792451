package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phillyrising/domain"
)

func TestFetchReturnsItemsAndValidators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Sep 2013 10:00:00 GMT")
		_, _ = w.Write([]byte(rssDoc))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	res, err := f.Fetch(context.Background(), domain.Feed{URL: srv.URL})
	require.NoError(t, err)
	assert.False(t, res.NotModified)
	assert.Equal(t, `"v1"`, res.ETag)
	assert.Equal(t, "Mon, 02 Sep 2013 10:00:00 GMT", res.LastModified)
	assert.Len(t, res.Items, 2)
}

func TestFetchSendsConditionalHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte(rssDoc))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	res, err := f.Fetch(context.Background(), domain.Feed{URL: srv.URL, ETag: `"v1"`, LastModified: "Mon, 02 Sep 2013 10:00:00 GMT"})
	require.NoError(t, err)
	assert.True(t, res.NotModified)
	assert.Empty(t, res.Items)
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	_, err := f.Fetch(context.Background(), domain.Feed{URL: srv.URL})
	require.Error(t, err)
}

func TestFetchUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("definitely not xml"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	_, err := f.Fetch(context.Background(), domain.Feed{URL: srv.URL})
	require.Error(t, err)
}
