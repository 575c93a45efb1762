package geospatial

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// MetersPerDegreeLatitude is the flat-earth conversion used for search boxes.
const MetersPerDegreeLatitude = 111_000.0

// ComputeBounds returns the rectangle spanning latOffsetMeters north and south
// and lngOffsetMeters east and west of center.
//
// The longitude offset is scaled by cos(latitude), so it diverges at the
// poles, and no antimeridian wrapping is done. Call Validate on the result
// before using it in a request.
func ComputeBounds(center domain.GeoPoint, latOffsetMeters, lngOffsetMeters float64) domain.BoundingRectangle {
	latDelta := latOffsetMeters / MetersPerDegreeLatitude
	lonDelta := lngOffsetMeters / (MetersPerDegreeLatitude * math.Cos(toRad(center.Lat)))

	return domain.BoundingRectangle{
		Southwest: domain.GeoPoint{Lat: center.Lat - latDelta, Lon: center.Lon - lonDelta},
		Northeast: domain.GeoPoint{Lat: center.Lat + latDelta, Lon: center.Lon + lonDelta},
	}
}

// ToBound converts a rectangle to an orb.Bound (X = longitude, Y = latitude).
func ToBound(r domain.BoundingRectangle) orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.Southwest.Lon, r.Southwest.Lat},
		Max: orb.Point{r.Northeast.Lon, r.Northeast.Lat},
	}
}

// Contains reports whether p lies inside r, edges included.
func Contains(r domain.BoundingRectangle, p domain.GeoPoint) bool {
	return ToBound(r).Contains(orb.Point{p.Lon, p.Lat})
}
