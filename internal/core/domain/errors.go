package domain

import "errors"

var (
	// ErrTransport wraps every failure of a remote places call: network errors,
	// timeouts, non-2xx statuses and undecodable bodies.
	ErrTransport = errors.New("places transport error")

	// ErrDegenerateGeometry means a search center produced bounds that cannot
	// be searched (typically at or next to a pole).
	ErrDegenerateGeometry = errors.New("degenerate search geometry")

	// ErrInvalidCoordinate means a latitude or longitude is out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrSessionNotFound is returned by the session registry for unknown IDs.
	ErrSessionNotFound = errors.New("search session not found")
)
