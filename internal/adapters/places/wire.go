package places

import "github.com/samirrijal/nearbite/internal/core/domain"

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type rectangle struct {
	Low  latLng `json:"low"`
	High latLng `json:"high"`
}

type locationRestriction struct {
	Rectangle rectangle `json:"rectangle"`
}

type searchTextRequest struct {
	TextQuery           string              `json:"textQuery"`
	IncludedType        string              `json:"includedType,omitempty"`
	PageSize            int                 `json:"pageSize,omitempty"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
	PageToken           string              `json:"pageToken,omitempty"`
}

type searchTextResponse struct {
	Places        []wirePlace `json:"places"`
	NextPageToken string      `json:"nextPageToken"`
}

type wirePlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text         string `json:"text"`
		LanguageCode string `json:"languageCode"`
	} `json:"displayName"`
	Location latLng      `json:"location"`
	Photos   []wirePhoto `json:"photos"`
}

type wirePhoto struct {
	Name               string `json:"name"`
	WidthPx            int    `json:"widthPx"`
	HeightPx           int    `json:"heightPx"`
	AuthorAttributions []struct {
		DisplayName string `json:"displayName"`
		URI         string `json:"uri"`
		PhotoURI    string `json:"photoUri"`
	} `json:"authorAttributions"`
}

func toWire(req domain.TextSearchRequest) searchTextRequest {
	return searchTextRequest{
		TextQuery:    req.TextQuery,
		IncludedType: req.IncludedType,
		PageSize:     req.PageSize,
		LocationRestriction: locationRestriction{Rectangle: rectangle{
			Low:  latLng{Latitude: req.Bounds.Southwest.Lat, Longitude: req.Bounds.Southwest.Lon},
			High: latLng{Latitude: req.Bounds.Northeast.Lat, Longitude: req.Bounds.Northeast.Lon},
		}},
		PageToken: req.PageToken,
	}
}

// toDomain keeps only the first photo of each place.
func (r searchTextResponse) toDomain() *domain.PlacesPage {
	page := &domain.PlacesPage{
		Places:        make([]domain.FoodLocation, 0, len(r.Places)),
		NextPageToken: r.NextPageToken,
	}
	for _, p := range r.Places {
		loc := domain.FoodLocation{
			ID:       p.ID,
			Name:     p.DisplayName.Text,
			Location: domain.GeoPoint{Lat: p.Location.Latitude, Lon: p.Location.Longitude},
		}
		if len(p.Photos) > 0 {
			ph := p.Photos[0]
			ref := &domain.PhotoReference{Name: ph.Name, WidthPx: ph.WidthPx, HeightPx: ph.HeightPx}
			for _, a := range ph.AuthorAttributions {
				ref.AuthorAttributions = append(ref.AuthorAttributions, domain.AuthorAttribution{
					DisplayName: a.DisplayName,
					URI:         a.URI,
					PhotoURI:    a.PhotoURI,
				})
			}
			loc.Photo = ref
		}
		page.Places = append(page.Places, loc)
	}
	return page
}
