package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

func pointToMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon}
}

func statusToMap(st domain.SessionStatus) map[string]interface{} {
	m := map[string]interface{}{
		"session_id":    st.SessionID,
		"epoch":         int(st.Epoch),
		"state":         string(st.State),
		"has_next_page": st.HasNextPage,
		"results":       st.Results,
		"materialized":  st.Materialized,
		"pages_fetched": st.PagesFetched,
		"last_error":    st.LastError,
	}
	if st.Center != nil {
		m["center"] = pointToMap(*st.Center)
	}
	if st.Bounds != nil {
		m["bounds"] = map[string]interface{}{
			"southwest": pointToMap(st.Bounds.Southwest),
			"northeast": pointToMap(st.Bounds.Northeast),
		}
	}
	return m
}

func placesToMaps(ps []domain.FoodLocation) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(ps))
	for _, p := range ps {
		m := map[string]interface{}{
			"id":       p.ID,
			"name":     p.Name,
			"location": pointToMap(p.Location),
		}
		if p.DistanceMeters != nil {
			m["distance_meters"] = *p.DistanceMeters
		}
		if p.Photo != nil {
			m["photo_name"] = p.Photo.Name
		}
		out = append(out, m)
	}
	return out
}

// buildSchema creates the GraphQL schema wired to the session registry.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingRectangle",
		Fields: graphql.Fields{
			"southwest": &graphql.Field{Type: geoPointType},
			"northeast": &graphql.Field{Type: geoPointType},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FoodLocation",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"name":            &graphql.Field{Type: graphql.String},
			"location":        &graphql.Field{Type: geoPointType},
			"distance_meters": &graphql.Field{Type: graphql.Float},
			"photo_name":      &graphql.Field{Type: graphql.String},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"session_id":    &graphql.Field{Type: graphql.String},
			"epoch":         &graphql.Field{Type: graphql.Int},
			"state":         &graphql.Field{Type: graphql.String},
			"center":        &graphql.Field{Type: geoPointType},
			"bounds":        &graphql.Field{Type: boundsType},
			"has_next_page": &graphql.Field{Type: graphql.Boolean},
			"results":       &graphql.Field{Type: graphql.Int},
			"materialized":  &graphql.Field{Type: graphql.Int},
			"pages_fetched": &graphql.Field{Type: graphql.Int},
			"last_error":    &graphql.Field{Type: graphql.String},
		},
	})

	fetchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FetchResult",
		Fields: graphql.Fields{
			"status":    &graphql.Field{Type: graphql.String},
			"epoch":     &graphql.Field{Type: graphql.Int},
			"received":  &graphql.Field{Type: graphql.Int},
			"exhausted": &graphql.Field{Type: graphql.Boolean},
			"appended":  &graphql.Field{Type: graphql.NewList(placeType)},
		},
	})

	idArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Status of a search session",
				Args:        graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctrl, err := deps.Explore.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return statusToMap(ctrl.Status()), nil
				},
			},
			"results": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Accumulated results of a session, in arrival order",
				Args: graphql.FieldConfigArgument{
					"id":     idArg,
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctrl, err := deps.Explore.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					results := ctrl.Results()
					start, end := newPagination(p.Args["offset"].(int), p.Args["limit"].(int), len(results)).Window()
					return placesToMaps(results[start:end]), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createSession": &graphql.Field{
				Type:        sessionType,
				Description: "Open a search session centered on a point",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					ctrl, err := deps.Explore.Create(p.Context, center)
					if err != nil {
						return nil, err
					}
					return statusToMap(ctrl.Status()), nil
				},
			},
			"recenter": &graphql.Field{
				Type:        sessionType,
				Description: "Restart a session's search at a new center",
				Args: graphql.FieldConfigArgument{
					"id":  idArg,
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					ctrl, err := deps.Explore.Recenter(p.Context, p.Args["id"].(string), center)
					if err != nil {
						return nil, err
					}
					return statusToMap(ctrl.Status()), nil
				},
			},
			"fetchNext": &graphql.Field{
				Type:        fetchType,
				Description: "Fetch the next result page of a session",
				Args:        graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctrl, err := deps.Explore.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					res, err := ctrl.FetchNext(p.Context)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"status":    string(res.Status),
						"epoch":     int(res.Epoch),
						"received":  res.Received,
						"exhausted": res.Exhausted,
						"appended":  placesToMaps(res.Appended),
					}, nil
				},
			},
			"reconcile": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Places a rendering surface still has to materialize",
				Args: graphql.FieldConfigArgument{
					"id":           idArg,
					"surfaceReady": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctrl, err := deps.Explore.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return placesToMaps(ctrl.ReconcileAll(p.Args["surfaceReady"].(bool))), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
