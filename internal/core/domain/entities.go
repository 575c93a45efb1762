package domain

import (
	"time"
)

// AuthorAttribution credits the author of a place photo.
type AuthorAttribution struct {
	DisplayName string `json:"display_name"`
	URI         string `json:"uri"`
	PhotoURI    string `json:"photo_uri,omitempty"`
}

// PhotoReference identifies a provider-hosted photo. Name is resolved to a
// fetchable media URL by the places adapter.
type PhotoReference struct {
	Name               string              `json:"name"`
	WidthPx            int                 `json:"width_px"`
	HeightPx           int                 `json:"height_px"`
	AuthorAttributions []AuthorAttribution `json:"author_attributions,omitempty"`
}

// FoodLocation is a point of interest returned by a places search.
// Identity is ID only: two values with the same ID are the same place.
type FoodLocation struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Location       GeoPoint        `json:"location"`
	Photo          *PhotoReference `json:"photo,omitempty"`
	DistanceMeters *float64        `json:"distance_meters,omitempty"` // from session center
}

// TextSearchRequest is one page request against the places provider.
type TextSearchRequest struct {
	TextQuery    string            `json:"text_query"`
	IncludedType string            `json:"included_type"`
	PageSize     int               `json:"page_size"`
	Bounds       BoundingRectangle `json:"bounds"`
	PageToken    string            `json:"page_token,omitempty"` // empty on the first page
}

// PlacesPage is one page of results. An empty NextPageToken means the
// provider has no further pages for the query.
type PlacesPage struct {
	Places        []FoodLocation `json:"places"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

// SessionState is the pagination state of a search session.
type SessionState string

const (
	StateNoSession SessionState = "no_session"
	StateIdle      SessionState = "idle"
	StateFetching  SessionState = "fetching"
	StateExhausted SessionState = "exhausted"
)

// FetchStatus describes what a fetch-next call did.
type FetchStatus string

const (
	FetchApplied   FetchStatus = "applied"    // page fetched and appended
	FetchNoSession FetchStatus = "no_session" // nothing to paginate yet
	FetchInFlight  FetchStatus = "in_flight"  // another fetch is outstanding
	FetchExhausted FetchStatus = "exhausted"  // last page already received
	FetchStale     FetchStatus = "stale"      // session replaced while fetching
	FetchFailed    FetchStatus = "failed"     // transport failure, page may be retried
)

// FetchResult is returned by every fetch-next call.
type FetchResult struct {
	Status    FetchStatus    `json:"status"`
	Epoch     uint64         `json:"epoch"`
	Appended  []FoodLocation `json:"appended"`
	Received  int            `json:"received"`
	Exhausted bool           `json:"exhausted"`
}

// SessionStatus is a read-only snapshot of a search session.
type SessionStatus struct {
	SessionID    string             `json:"session_id,omitempty"`
	Epoch        uint64             `json:"epoch"`
	State        SessionState       `json:"state"`
	Center       *GeoPoint          `json:"center,omitempty"`
	Bounds       *BoundingRectangle `json:"bounds,omitempty"`
	HasNextPage  bool               `json:"has_next_page"`
	Results      int                `json:"results"`
	Materialized int                `json:"materialized"`
	PagesFetched int                `json:"pages_fetched"`
	LastError    string             `json:"last_error,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ResultBatch carries the entities a page added to a session, for observers.
type ResultBatch struct {
	SessionID string         `json:"session_id"`
	Epoch     uint64         `json:"epoch"`
	Places    []FoodLocation `json:"places"`
	Exhausted bool           `json:"exhausted"`
}

// WarmupRequest asks the background warmer to pre-fetch pages around a center.
type WarmupRequest struct {
	Center      GeoPoint  `json:"center"`
	RequestedAt time.Time `json:"requested_at"`
}

// PageFetch is the audit record of one applied page.
type PageFetch struct {
	SessionID   string    `json:"session_id"`
	Epoch       uint64    `json:"epoch"`
	Center      GeoPoint  `json:"center"`
	PageToken   string    `json:"page_token,omitempty"`
	Received    int       `json:"received"`
	Appended    int       `json:"appended"`
	Exhausted   bool      `json:"exhausted"`
	FetchedAt   time.Time `json:"fetched_at"`
	LatencyMsec int64     `json:"latency_ms"`
}

// SearchStats aggregates the page log.
type SearchStats struct {
	Sessions      int    `json:"sessions"`
	Pages         int    `json:"pages"`
	PlacesSeen    int    `json:"places_seen"`
	PlacesKept    int    `json:"places_kept"`
	Exhausted     int    `json:"exhausted_sessions"`
	LastFetchedAt string `json:"last_fetched_at,omitempty"`
}
