package places

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

func TestMediaURL(t *testing.T) {
	raw, err := MediaURL("https://places.googleapis.com/", "places/ChIJ1/photos/AAA", 0, 9000)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "places.googleapis.com", u.Host)
	assert.Equal(t, "/v1/places/ChIJ1/photos/AAA/media", u.Path)
	assert.Equal(t, "400", u.Query().Get("maxWidthPx"))
	assert.Equal(t, "4800", u.Query().Get("maxHeightPx"))
	assert.Equal(t, "true", u.Query().Get("skipHttpRedirect"))
	assert.False(t, u.Query().Has("key"))
}

func TestMediaURL_InvalidName(t *testing.T) {
	for _, name := range []string{"", "photos/AAA", "places/ChIJ1", "https://evil.example/x"} {
		_, err := MediaURL("https://places.googleapis.com", name, 100, 100)
		assert.ErrorIs(t, err, ErrInvalidPhotoName, "name %q", name)
	}
}

func TestClampPhotoPx(t *testing.T) {
	assert.Equal(t, DefaultPhotoPx, ClampPhotoPx(-1))
	assert.Equal(t, 1, ClampPhotoPx(1))
	assert.Equal(t, 1200, ClampPhotoPx(1200))
	assert.Equal(t, MaxPhotoPx, ClampPhotoPx(MaxPhotoPx+1))
}

func TestClient_ResolvePhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/places/ChIJ1/photos/AAA/media", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("skipHttpRedirect"))
		assert.Equal(t, "800", r.URL.Query().Get("maxWidthPx"))
		assert.False(t, r.URL.Query().Has("key"))
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"places/ChIJ1/photos/AAA/media","photoUri":"https://lh3.example/p/AAA=w800"}`)
	}))
	defer srv.Close()

	uri, err := newTestClient(srv.URL).ResolvePhoto(context.Background(), "places/ChIJ1/photos/AAA", 800, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://lh3.example/p/AAA=w800", uri)
	assert.NotContains(t, uri, "test-key")
}

func TestClient_ResolvePhoto_InvalidNameSkipsProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ResolvePhoto(context.Background(), "evil", 100, 100)
	assert.ErrorIs(t, err, ErrInvalidPhotoName)
}

func TestClient_ResolvePhoto_MissingURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"name":"places/ChIJ1/photos/AAA/media"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ResolvePhoto(context.Background(), "places/ChIJ1/photos/AAA", 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
}

func TestClient_ResolvePhoto_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ResolvePhoto(context.Background(), "places/ChIJ1/photos/AAA", 0, 0)
	assert.ErrorIs(t, err, domain.ErrTransport)
}
