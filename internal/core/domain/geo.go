package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point lies inside the WGS 84 coordinate ranges.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return fmt.Errorf("%w: NaN coordinate", ErrInvalidCoordinate)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %.6f outside [-90, 90]", ErrInvalidCoordinate, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %.6f outside [-180, 180]", ErrInvalidCoordinate, p.Lon)
	}
	return nil
}

// BoundingRectangle is an axis-aligned search box given by its southwest and
// northeast corners. Boxes crossing the antimeridian are not represented.
type BoundingRectangle struct {
	Southwest GeoPoint `json:"southwest"`
	Northeast GeoPoint `json:"northeast"`
}

// Validate rejects rectangles that cannot be sent to a search backend:
// non-finite corners, inverted corners, or a longitude span of a full turn
// or more (what cos(lat) produces close to the poles).
func (r BoundingRectangle) Validate() error {
	for _, v := range []float64{r.Southwest.Lat, r.Southwest.Lon, r.Northeast.Lat, r.Northeast.Lon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite corner", ErrDegenerateGeometry)
		}
	}
	if r.Southwest.Lat > r.Northeast.Lat || r.Southwest.Lon > r.Northeast.Lon {
		return fmt.Errorf("%w: southwest corner is north or east of northeast corner", ErrDegenerateGeometry)
	}
	if r.Northeast.Lon-r.Southwest.Lon >= 360 {
		return fmt.Errorf("%w: longitude span %.2f° covers the whole globe", ErrDegenerateGeometry,
			r.Northeast.Lon-r.Southwest.Lon)
	}
	return nil
}

// Center returns the midpoint of the rectangle.
func (r BoundingRectangle) Center() GeoPoint {
	return GeoPoint{
		Lat: (r.Southwest.Lat + r.Northeast.Lat) / 2,
		Lon: (r.Southwest.Lon + r.Northeast.Lon) / 2,
	}
}
