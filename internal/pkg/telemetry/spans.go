package telemetry

// Span names used for instrumentation.
const (
	SpanPlacesSearch  = "places.searchText"
	SpanPlacesPhoto   = "places.photoMedia"
	SpanPageLogRecord = "pagelog.record"
	SpanWarmupRegion  = "warmup.region"
)

// Span attribute keys.
const (
	AttrSessionID    = "nearbite.session_id"
	AttrEpoch        = "nearbite.epoch"
	AttrHasPageToken = "nearbite.has_page_token"
	AttrPlaces       = "nearbite.places"
	AttrHTTPStatus   = "http.status_code"
)
