package validate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	assert.NoError(t, URL("http://example.com/feed"))
	assert.NoError(t, URL("https://example.com/feed?x=1"))
	assert.Error(t, URL("not a url"))
	assert.Error(t, URL("ftp://example.com/feed"))
	assert.Error(t, URL("example.com/no-scheme"))
}

func TestReachable(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ok.Close()
	require.NoError(t, Reachable(ok.URL))

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()
	require.Error(t, Reachable(bad.URL))

	require.Error(t, Reachable("not a url"))
}
