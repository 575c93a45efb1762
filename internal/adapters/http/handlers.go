package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/nearbite/internal/adapters/places"
	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/pkg/geospatial"
)

// centerRequest is the body of session create and recenter calls.
type centerRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (r centerRequest) point() (domain.GeoPoint, bool) {
	if r.Lat == nil || r.Lon == nil {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: *r.Lat, Lon: *r.Lon}, true
}

// renderRequest offers candidates to a rendering surface. Without IDs the
// whole current result sequence is offered.
type renderRequest struct {
	SurfaceReady bool     `json:"surface_ready"`
	IDs          []string `json:"ids"`
}

// RenderResponse lists what the surface must materialize now.
type RenderResponse struct {
	Materialize  []domain.FoodLocation `json:"materialize"`
	Materialized int                   `json:"materialized"`
}

// NextPageResponse is returned by the fetch-next endpoint.
type NextPageResponse struct {
	Fetch   domain.FetchResult   `json:"fetch"`
	Session domain.SessionStatus `json:"session"`
}

// StatsResponse combines page log totals with live session counts.
type StatsResponse struct {
	domain.SearchStats
	ActiveSessions int `json:"active_sessions"`
}

// CreateSessionHandler opens a search session centered on the posted point.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body centerRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		center, ok := body.point()
		if !ok {
			return errBadRequest(c, "lat and lon are required")
		}

		ctrl, err := deps.Explore.Create(c.UserContext(), center)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Location("/v1/sessions/" + ctrl.ID())
		return c.Status(fiber.StatusCreated).JSON(ctrl.Status())
	}
}

// GetSessionHandler returns a session status snapshot.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctrl, err := deps.Explore.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(ctrl.Status())
	}
}

// RecenterHandler starts a new search in an existing session.
func RecenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body centerRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		center, ok := body.point()
		if !ok {
			return errBadRequest(c, "lat and lon are required")
		}

		ctrl, err := deps.Explore.Recenter(c.UserContext(), c.Params("id"), center)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(ctrl.Status())
	}
}

// NextPageHandler fetches the next result page of a session. No-op outcomes
// (in flight, exhausted, stale) are 200 responses; a provider failure is 502
// and carries the fetch outcome so the client knows the page can be retried.
func NextPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctrl, err := deps.Explore.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}

		res, err := ctrl.FetchNext(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("next page failed", "session_id", ctrl.ID(), "error", err)
			apiErr := buildError(c, fiber.StatusBadGateway, "bad_gateway", err.Error())
			return c.Status(fiber.StatusBadGateway).JSON(struct {
				APIError
				Fetch domain.FetchResult `json:"fetch"`
			}{apiErr, res})
		}
		if res.Appended == nil {
			res.Appended = []domain.FoodLocation{}
		}
		return c.JSON(NextPageResponse{Fetch: res, Session: ctrl.Status()})
	}
}

// ResultsHandler returns the accumulated result sequence, paginated.
func ResultsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctrl, err := deps.Explore.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		results := ctrl.Results()

		pg := newPagination(c.QueryInt("offset", 0), c.QueryInt("limit", defaultLimit), len(results))
		start, end := pg.Window()
		page := results[start:end]
		if page == nil {
			page = []domain.FoodLocation{}
		}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// ResultsGeoJSONHandler exports the result sequence as a FeatureCollection.
func ResultsGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctrl, err := deps.Explore.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}

		fc := geospatial.FeatureCollection(ctrl.Results(), ctrl.Status().Bounds)
		data, err := fc.MarshalJSON()
		if err != nil {
			return errInternal(c, "encode geojson")
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// RenderHandler reconciles candidates against what the surface has already
// drawn and returns only the ones it still has to materialize.
func RenderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctrl, err := deps.Explore.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}

		var body renderRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var out []domain.FoodLocation
		if len(body.IDs) == 0 {
			out = ctrl.ReconcileAll(body.SurfaceReady)
		} else {
			byID := make(map[string]domain.FoodLocation)
			for _, p := range ctrl.Results() {
				byID[p.ID] = p
			}
			candidates := make([]domain.FoodLocation, 0, len(body.IDs))
			for _, id := range body.IDs {
				if p, ok := byID[id]; ok {
					candidates = append(candidates, p)
				}
			}
			out = ctrl.ReconcileForRender(candidates, body.SurfaceReady)
		}
		if out == nil {
			out = []domain.FoodLocation{}
		}

		return c.JSON(RenderResponse{Materialize: out, Materialized: ctrl.Status().Materialized})
	}
}

// ResetRenderHandler forgets what the surface has materialized.
func ResetRenderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctrl, err := deps.Explore.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		ctrl.ResetRendering()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteSessionHandler closes a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Explore.Close(c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PhotoHandler resolves a place photo on the server and redirects to its
// key-free URI.
func PhotoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return errBadRequest(c, "name query parameter is required")
		}
		if deps.Photos == nil {
			return errBadGateway(c, "photo provider not configured")
		}
		uri, err := deps.Photos.ResolvePhoto(c.UserContext(), name,
			c.QueryInt("max_width", places.DefaultPhotoPx), c.QueryInt("max_height", places.DefaultPhotoPx))
		if errors.Is(err, places.ErrInvalidPhotoName) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "private, max-age=300")
		return c.Redirect(uri, fiber.StatusFound)
	}
}

// StatsHandler returns page log totals and the number of open sessions.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := StatsResponse{ActiveSessions: deps.Explore.Len()}
		if deps.PageLog != nil {
			stats, err := deps.PageLog.Stats(c.UserContext())
			if err != nil {
				LoggerFromCtx(c.UserContext()).Error("page log stats", "error", err)
				return errInternal(c, "stats unavailable")
			}
			resp.SearchStats = *stats
		}
		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(resp)
	}
}
