package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/graph"
	"github.com/meikuraledutech/campusnav/memory"
	"github.com/meikuraledutech/campusnav/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// campus: B1 -> W1 -> B2 (30 + 45), B3 isolated.
func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	for _, b := range []campusnav.Building{
		{ID: 1, Name: "Main Block", Code: "MB", Latitude: 12.9716, Longitude: 77.5946},
		{ID: 2, Name: "Central Library", Code: "LIB", Latitude: 12.9721, Longitude: 77.5951},
		{ID: 3, Name: "Boys Hostel", Code: "HOSTEL-B", Latitude: 12.9800, Longitude: 77.6000},
	} {
		_, err := s.AddBuilding(ctx, &b)
		require.NoError(t, err)
	}
	_, err := s.AddWaypoint(ctx, &campusnav.Waypoint{ID: 1, Name: "Central Plaza", Code: "WP-PLAZA", Latitude: 12.9718, Longitude: 77.5948})
	require.NoError(t, err)
	for _, p := range []campusnav.Path{
		{Source: campusnav.BuildingNode(1), Destination: campusnav.WaypointNode(1), Distance: 30, Accessible: true},
		{Source: campusnav.WaypointNode(1), Destination: campusnav.BuildingNode(2), Distance: 45, Accessible: true},
	} {
		_, err := s.AddPath(ctx, &p)
		require.NoError(t, err)
	}
	return s
}

func newApp(t *testing.T, store campusnav.Store) *fiber.App {
	t.Helper()
	return New(store, routing.New(store, routing.Options{Logger: quiet}), quiet)
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestHealthAndRequestID(t *testing.T) {
	app := newApp(t, seed(t))

	resp, body := do(t, app, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	r2, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "trace-123", r2.Header.Get(RequestIDHeader))
}

func TestRouteFound(t *testing.T) {
	app := newApp(t, seed(t))

	resp, body := do(t, app, http.MethodPost, "/api/navigation/route",
		`{"start_building_id": 1, "end_building_id": 2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 75.0, body["total_distance"])
	assert.Equal(t, 1.0, body["estimated_time_minutes"])
	assert.Equal(t, 1.0, body["waypoints_count"])
	start := body["start"].(map[string]any)
	assert.Equal(t, "Main Block", start["name"])
	steps := body["route"].([]any)
	require.Len(t, steps, 3)
	assert.Equal(t, "waypoint", steps[1].(map[string]any)["type"])
	directions := body["directions"].([]any)
	assert.Equal(t, "Start at Main Block", directions[0].(map[string]any)["instruction"])
}

func TestRouteErrors(t *testing.T) {
	app := newApp(t, seed(t))

	cases := []struct {
		name   string
		body   string
		status int
		error  string
	}{
		{"missing ids", `{"start_building_id": 1}`, http.StatusBadRequest, "start and end buildings required"},
		{"bad json", `{"start_building_id":`, http.StatusBadRequest, "invalid body"},
		{"unknown building", `{"start_building_id": 1, "end_building_id": 42}`, http.StatusNotFound, "invalid building ids"},
		{"no route", `{"start_building_id": 1, "end_building_id": 3}`, http.StatusNotFound, "no route found between buildings"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, app, http.MethodPost, "/api/navigation/route", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.error, body["error"])
		})
	}
}

func TestRouteStrictDanglingPath(t *testing.T) {
	store := seed(t)
	_, err := store.AddPath(context.Background(), &campusnav.Path{
		Source:      campusnav.BuildingNode(3),
		Destination: campusnav.WaypointNode(99),
		Distance:    10,
	})
	require.NoError(t, err)
	app := New(store, routing.New(store, routing.Options{Mode: graph.Strict, Logger: quiet}), quiet)

	resp, body := do(t, app, http.MethodPost, "/api/navigation/route",
		`{"start_building_id": 1, "end_building_id": 2}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEqual(t, "invalid building ids", body["error"])
}

// brokenStore fails every listing.
type brokenStore struct{ campusnav.Store }

func (brokenStore) ListBuildings(context.Context) ([]campusnav.Building, error) {
	return nil, errors.New("connection reset")
}

func TestRouteStoreFailure(t *testing.T) {
	app := newApp(t, brokenStore{seed(t)})

	resp, body := do(t, app, http.MethodPost, "/api/navigation/route",
		`{"start_building_id": 1, "end_building_id": 2}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["error"], "connection reset")

	resp, _ = do(t, app, http.MethodGet, "/api/buildings", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestBuildings(t *testing.T) {
	app := newApp(t, seed(t))

	resp, body := do(t, app, http.MethodGet, "/api/buildings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, body["total"])

	resp, body = do(t, app, http.MethodGet, "/api/buildings/2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "LIB", body["building"].(map[string]any)["code"])

	resp, _ = do(t, app, http.MethodGet, "/api/buildings/99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, app, http.MethodGet, "/api/buildings/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/api/buildings/search?q=lib", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["total"])
	resp, _ = do(t, app, http.MethodGet, "/api/buildings/search", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodPost, "/api/buildings",
		`{"name": "Auditorium", "code": "AUD", "latitude": 12.963459, "longitude": 77.505921}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 4.0, body["building_id"])

	resp, _ = do(t, app, http.MethodPost, "/api/buildings", `{"name": "Nowhere", "latitude": 91}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, "/api/buildings", `{"latitude": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/buildings/4", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, "/api/buildings/4", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWaypoints(t *testing.T) {
	app := newApp(t, seed(t))

	resp, body := do(t, app, http.MethodPost, "/api/navigation/waypoints",
		`{"name": "Library Path", "code": "WP-LIB-PATH", "latitude": 12.9644, "longitude": 77.50565, "waypoint_type": "pathway"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2.0, body["waypoint_id"])

	resp, body = do(t, app, http.MethodGet, "/api/navigation/waypoints", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["waypoints"], 2)

	resp, _ = do(t, app, http.MethodDelete, "/api/navigation/waypoints/2", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, "/api/navigation/waypoints/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaths(t *testing.T) {
	store := seed(t)
	app := newApp(t, store)

	// No distance: computed from coordinates, stored both ways.
	resp, body := do(t, app, http.MethodPost, "/api/paths",
		`{"source": {"kind": "building", "id": 2}, "destination": {"kind": "building", "id": 3}, "accessibility": true, "bidirectional": true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, body["path_ids"], 2)
	assert.Greater(t, body["distance"].(float64), 500.0)

	paths, err := store.ListPaths(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Equal(t, campusnav.BuildingNode(3), paths[3].Source)
	assert.Equal(t, campusnav.PathWalkway, paths[2].PathType)
	assert.Equal(t, campusnav.PathWalkway, paths[3].PathType)
	assert.Equal(t, paths[2].Distance, paths[3].Distance)

	resp, body = do(t, app, http.MethodPost, "/api/navigation/route",
		`{"start_building_id": 1, "end_building_id": 3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, "new path connects the hostel")
	assert.Equal(t, 1.0, body["waypoints_count"])

	resp, body = do(t, app, http.MethodPost, "/api/paths",
		`{"source": {"kind": "waypoint", "id": 9}, "destination": {"kind": "building", "id": 1}, "distance": 5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown source waypoint:9", body["error"])

	resp, _ = do(t, app, http.MethodPost, "/api/paths",
		`{"source": {"kind": "tunnel", "id": 1}, "destination": {"kind": "building", "id": 1}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/paths",
		`{"source": {"kind": "building", "id": 1}, "destination": {"kind": "building", "id": 2}, "distance": -1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/paths/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, "/api/paths/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNearest(t *testing.T) {
	app := newApp(t, seed(t))

	resp, body := do(t, app, http.MethodGet, "/api/navigation/nearest?lat=12.9716&lon=77.5946&k=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	nodes := body["nodes"].([]any)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Main Block", nodes[0].(map[string]any)["name"])

	resp, body = do(t, app, http.MethodGet, "/api/navigation/nearest?lat=12.9716&lon=77.5946&kind=waypoint", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	nodes = body["nodes"].([]any)
	require.Len(t, nodes, 1)
	assert.Equal(t, "WP-PLAZA", nodes[0].(map[string]any)["code"])

	for _, q := range []string{"lon=77", "lat=12&lon=x", "lat=100&lon=0", "lat=1&lon=1&k=0", "lat=1&lon=1&kind=tree"} {
		resp, _ = do(t, app, http.MethodGet, "/api/navigation/nearest?"+q, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestGraphSummary(t *testing.T) {
	store := seed(t)
	_, err := store.AddPath(context.Background(), &campusnav.Path{
		Source: campusnav.BuildingNode(1), Destination: campusnav.WaypointNode(77), Distance: 3,
	})
	require.NoError(t, err)
	app := newApp(t, store)

	resp, body := do(t, app, http.MethodGet, "/api/navigation/graph", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4.0, body["nodes"])
	assert.Equal(t, 2.0, body["edges"])
	assert.Equal(t, 1.0, body["skipped"])
	report := body["report"].(map[string]any)
	assert.Equal(t, 1.0, report["dangling_paths"])
}

func TestSchemaAndMetrics(t *testing.T) {
	app := newApp(t, seed(t))

	resp, body := do(t, app, http.MethodPost, "/schema", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "schema created", body["message"])

	resp, _ = do(t, app, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mresp, err := app.Test(req)
	require.NoError(t, err)
	defer mresp.Body.Close()
	raw, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
	assert.Contains(t, string(raw), "campusnav_http_requests_total")

	resp, body = do(t, app, http.MethodDelete, "/schema", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "schema dropped", body["message"])
}

func TestUnknownRoute(t *testing.T) {
	app := newApp(t, seed(t))
	resp, body := do(t, app, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}
