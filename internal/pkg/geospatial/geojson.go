package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// FeatureCollection renders places as GeoJSON point features, in order.
// When bounds is non-nil it becomes the collection bbox.
func FeatureCollection(places []domain.FoodLocation, bounds *domain.BoundingRectangle) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range places {
		f := geojson.NewFeature(orb.Point{p.Location.Lon, p.Location.Lat})
		f.ID = p.ID
		f.Properties["id"] = p.ID
		f.Properties["name"] = p.Name
		if p.Photo != nil {
			f.Properties["photo"] = p.Photo.Name
		}
		if p.DistanceMeters != nil {
			f.Properties["distance_meters"] = *p.DistanceMeters
		}
		fc.Append(f)
	}
	if bounds != nil {
		fc.BBox = geojson.NewBBox(ToBound(*bounds))
	}
	return fc
}
