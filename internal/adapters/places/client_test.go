package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

const samplePage = `{
  "places": [
    {
      "id": "ChIJ1",
      "displayName": {"text": "Blue Bottle", "languageCode": "en"},
      "location": {"latitude": 40.01, "longitude": -74.01},
      "photos": [
        {"name": "places/ChIJ1/photos/AAA", "widthPx": 800, "heightPx": 600,
         "authorAttributions": [{"displayName": "Ana", "uri": "https://maps.example/ana", "photoUri": "https://img.example/ana"}]},
        {"name": "places/ChIJ1/photos/BBB", "widthPx": 10, "heightPx": 10}
      ]
    },
    {
      "id": "ChIJ2",
      "displayName": {"text": "Corner Cafe"},
      "location": {"latitude": 39.99, "longitude": -73.99}
    }
  ],
  "nextPageToken": "next-1"
}`

func testRequest() domain.TextSearchRequest {
	return domain.TextSearchRequest{
		TextQuery:    "coffee",
		IncludedType: "cafe",
		PageSize:     5,
		Bounds: domain.BoundingRectangle{
			Southwest: domain.GeoPoint{Lat: 39.95, Lon: -74.06},
			Northeast: domain.GeoPoint{Lat: 40.05, Lon: -73.94},
		},
	}
}

func newTestClient(url string) *Client {
	return NewClient(url+"/", "test-key", 2*time.Second, WithRetry(3, time.Millisecond))
}

func TestClient_SearchText(t *testing.T) {
	var got searchTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Equal(t, defaultFieldMask, r.Header.Get("X-Goog-FieldMask"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, samplePage)
	}))
	defer srv.Close()

	req := testRequest()
	req.PageToken = "tok"
	page, err := newTestClient(srv.URL).SearchText(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "coffee", got.TextQuery)
	assert.Equal(t, "cafe", got.IncludedType)
	assert.Equal(t, 5, got.PageSize)
	assert.Equal(t, "tok", got.PageToken)
	assert.InDelta(t, 39.95, got.LocationRestriction.Rectangle.Low.Latitude, 1e-9)
	assert.InDelta(t, -73.94, got.LocationRestriction.Rectangle.High.Longitude, 1e-9)

	require.Len(t, page.Places, 2)
	assert.Equal(t, "next-1", page.NextPageToken)

	first := page.Places[0]
	assert.Equal(t, "ChIJ1", first.ID)
	assert.Equal(t, "Blue Bottle", first.Name)
	assert.InDelta(t, 40.01, first.Location.Lat, 1e-9)
	require.NotNil(t, first.Photo)
	assert.Equal(t, "places/ChIJ1/photos/AAA", first.Photo.Name)
	assert.Equal(t, 800, first.Photo.WidthPx)
	require.Len(t, first.Photo.AuthorAttributions, 1)
	assert.Equal(t, "Ana", first.Photo.AuthorAttributions[0].DisplayName)

	assert.Nil(t, page.Places[1].Photo)
}

func TestClient_FirstPageOmitsToken(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = io.WriteString(w, `{"places":[]}`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).SearchText(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, page.Places)
	assert.Empty(t, page.NextPageToken)
	assert.NotContains(t, raw, "pageToken")
}

func TestClient_ErrorStatusIsTransportError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SearchText(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, samplePage)
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).SearchText(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, page.Places, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SearchText(context.Background(), testRequest())
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"places": [`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SearchText(context.Background(), testRequest())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "k", time.Second, WithRetry(1, 0)).SearchText(context.Background(), testRequest())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_CustomFieldMask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "places.id,nextPageToken", r.Header.Get("X-Goog-FieldMask"))
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, WithFieldMask("places.id,nextPageToken"))
	_, err := c.SearchText(context.Background(), testRequest())
	require.NoError(t, err)
}
