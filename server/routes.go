package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/geoindex"
	"github.com/meikuraledutech/campusnav/graph"
	"github.com/meikuraledutech/campusnav/routing"
)

const (
	defaultNearest = 5
	maxNearest     = 50
)

// ── Schema ────────────────────────────────────────────────────────

func (s *Server) registerSchema(app *fiber.App) {
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := s.store.CreateSchema(c.Context()); err != nil {
			return s.fail(c, err)
		}
		s.routes.Invalidate()
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := s.store.DropSchema(c.Context()); err != nil {
			return s.fail(c, err)
		}
		s.routes.Invalidate()
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})
}

// ── Buildings ─────────────────────────────────────────────────────

func (s *Server) registerBuildings(app *fiber.App) {
	app.Get("/api/buildings", func(c fiber.Ctx) error {
		list, err := s.store.ListBuildings(c.Context())
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{"buildings": list, "total": len(list)})
	})

	// Registered before /:id so "search" is not taken for an id.
	app.Get("/api/buildings/search", func(c fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errorJSON(c, fiber.StatusBadRequest, "search query is required")
		}
		list, err := s.store.ListBuildings(c.Context())
		if err != nil {
			return s.fail(c, err)
		}
		needle := strings.ToLower(q)
		found := []campusnav.Building{}
		for _, b := range list {
			if strings.Contains(strings.ToLower(b.Name), needle) || strings.Contains(strings.ToLower(b.Code), needle) {
				found = append(found, b)
			}
		}
		return c.JSON(fiber.Map{"buildings": found, "total": len(found), "query": q})
	})

	app.Get("/api/buildings/:id", func(c fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "invalid building id")
		}
		b, err := s.store.GetBuilding(c.Context(), id)
		if err != nil {
			return s.fail(c, err)
		}
		if b == nil {
			return errorJSON(c, fiber.StatusNotFound, "building not found")
		}
		return c.JSON(fiber.Map{"building": b})
	})

	app.Post("/api/buildings", func(c fiber.Ctx) error {
		var b campusnav.Building
		if err := c.Bind().JSON(&b); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid body")
		}
		if msg := checkPlace(b.Name, b.Latitude, b.Longitude); msg != "" {
			return errorJSON(c, fiber.StatusBadRequest, msg)
		}
		id, err := s.store.AddBuilding(c.Context(), &b)
		if err != nil {
			return s.fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"building_id": id})
	})

	app.Delete("/api/buildings/:id", func(c fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "invalid building id")
		}
		err := s.store.DeleteBuilding(c.Context(), id)
		if errors.Is(err, campusnav.ErrBuildingNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "building not found")
		}
		if err != nil {
			return s.fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// ── Waypoints ─────────────────────────────────────────────────────

func (s *Server) registerWaypoints(app *fiber.App) {
	app.Get("/api/navigation/waypoints", func(c fiber.Ctx) error {
		list, err := s.store.ListWaypoints(c.Context())
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{"waypoints": list})
	})

	app.Post("/api/navigation/waypoints", func(c fiber.Ctx) error {
		var w campusnav.Waypoint
		if err := c.Bind().JSON(&w); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid body")
		}
		if msg := checkPlace(w.Name, w.Latitude, w.Longitude); msg != "" {
			return errorJSON(c, fiber.StatusBadRequest, msg)
		}
		id, err := s.store.AddWaypoint(c.Context(), &w)
		if err != nil {
			return s.fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"waypoint_id": id})
	})

	app.Delete("/api/navigation/waypoints/:id", func(c fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "invalid waypoint id")
		}
		err := s.store.DeleteWaypoint(c.Context(), id)
		if errors.Is(err, campusnav.ErrWaypointNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "waypoint not found")
		}
		if err != nil {
			return s.fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// ── Paths ─────────────────────────────────────────────────────────

// createPath is the POST /api/paths body. A missing distance is computed
// from the endpoint coordinates. Bidirectional also stores the reverse path.
type createPath struct {
	Source        campusnav.NodeID `json:"source"`
	Destination   campusnav.NodeID `json:"destination"`
	Distance      *float64         `json:"distance"`
	PathType      string           `json:"path_type"`
	Accessible    bool             `json:"accessibility"`
	Bidirectional bool             `json:"bidirectional"`
}

func (s *Server) registerPaths(app *fiber.App) {
	app.Get("/api/paths", func(c fiber.Ctx) error {
		list, err := s.store.ListPaths(c.Context())
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{"paths": list})
	})

	app.Post("/api/paths", func(c fiber.Ctx) error {
		var req createPath
		if err := c.Bind().JSON(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid body")
		}
		if req.Distance != nil && *req.Distance < 0 {
			return errorJSON(c, fiber.StatusBadRequest, "distance cannot be negative")
		}

		src, ok, err := s.locate(c.Context(), req.Source)
		if err != nil {
			return s.fail(c, err)
		}
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "unknown source "+req.Source.String())
		}
		dst, ok, err := s.locate(c.Context(), req.Destination)
		if err != nil {
			return s.fail(c, err)
		}
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "unknown destination "+req.Destination.String())
		}

		p := campusnav.Path{
			Source:      req.Source,
			Destination: req.Destination,
			PathType:    req.PathType,
			Accessible:  req.Accessible,
		}
		if req.Distance != nil {
			p.Distance = *req.Distance
		} else {
			p.Distance = geoindex.PathLength(src.Latitude, src.Longitude, dst.Latitude, dst.Longitude)
		}

		toAdd := []campusnav.Path{p}
		if req.Bidirectional {
			toAdd = append(toAdd, p.Reverse())
		}
		// Both directions are stored in one write.
		ids, err := s.store.AddPaths(c.Context(), toAdd)
		if err != nil {
			return s.fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"path_ids": ids, "distance": p.Distance})
	})

	app.Delete("/api/paths/:id", func(c fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "invalid path id")
		}
		err := s.store.DeletePath(c.Context(), id)
		if errors.Is(err, campusnav.ErrPathNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "path not found")
		}
		if err != nil {
			return s.fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// locate returns the point stored for id. ok is false when the node does
// not exist or its kind is invalid.
func (s *Server) locate(ctx context.Context, id campusnav.NodeID) (p geoindex.Point, ok bool, err error) {
	switch id.Kind {
	case campusnav.KindBuilding:
		b, err := s.store.GetBuilding(ctx, id.ID)
		if err != nil || b == nil {
			return p, false, err
		}
		return geoindex.Point{Node: id, Name: b.Name, Code: b.Code, Latitude: b.Latitude, Longitude: b.Longitude}, true, nil
	case campusnav.KindWaypoint:
		w, err := s.store.GetWaypoint(ctx, id.ID)
		if err != nil || w == nil {
			return p, false, err
		}
		return geoindex.Point{Node: id, Name: w.Name, Code: w.Code, Latitude: w.Latitude, Longitude: w.Longitude}, true, nil
	}
	return p, false, nil
}

// ── Navigation ────────────────────────────────────────────────────

func (s *Server) registerNavigation(app *fiber.App) {
	app.Post("/api/navigation/route", func(c fiber.Ctx) error {
		var req routing.Request
		if err := c.Bind().JSON(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid body")
		}
		res, err := s.routes.Route(c.Context(), req)
		switch {
		case errors.Is(err, routing.ErrInvalidRequest):
			return errorJSON(c, fiber.StatusBadRequest, "start and end buildings required")
		case errors.Is(err, graph.ErrUnknownNode):
			return errorJSON(c, fiber.StatusNotFound, "invalid building ids")
		case err != nil:
			return s.fail(c, err)
		case res == nil:
			return errorJSON(c, fiber.StatusNotFound, "no route found between buildings")
		}
		return c.JSON(res)
	})

	app.Get("/api/navigation/nearest", func(c fiber.Ctx) error {
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "lat is required")
		}
		lon, err := strconv.ParseFloat(c.Query("lon"), 64)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "lon is required")
		}
		if msg := checkCoords(lat, lon); msg != "" {
			return errorJSON(c, fiber.StatusBadRequest, msg)
		}

		k := defaultNearest
		if v := c.Query("k"); v != "" {
			k, err = strconv.Atoi(v)
			if err != nil || k <= 0 {
				return errorJSON(c, fiber.StatusBadRequest, "k must be a positive integer")
			}
			k = min(k, maxNearest)
		}
		var kind campusnav.Kind
		if v := c.Query("kind"); v != "" {
			if kind, err = campusnav.ParseKind(v); err != nil {
				return errorJSON(c, fiber.StatusBadRequest, "kind must be building or waypoint")
			}
		}

		matches, err := s.routes.Nearest(c.Context(), lat, lon, k, kind)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{"nodes": matches})
	})

	app.Get("/api/navigation/graph", func(c fiber.Ctx) error {
		accessibleOnly, _ := strconv.ParseBool(c.Query("accessible_only"))
		g, report, err := s.routes.Graph(c.Context(), accessibleOnly)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{
			"nodes":   g.Len(),
			"edges":   g.EdgeCount(),
			"report":  report,
			"skipped": report.Skipped(),
		})
	})
}

func checkPlace(name string, lat, lon float64) string {
	if strings.TrimSpace(name) == "" {
		return "name is required"
	}
	return checkCoords(lat, lon)
}

func checkCoords(lat, lon float64) string {
	if lat < -90 || lat > 90 {
		return "latitude out of range"
	}
	if lon < -180 || lon > 180 {
		return "longitude out of range"
	}
	return ""
}
