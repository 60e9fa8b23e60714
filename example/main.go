package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/campusfile"
	"github.com/meikuraledutech/campusnav/memory"
	"github.com/meikuraledutech/campusnav/postgres"
	"github.com/meikuraledutech/campusnav/routing"
)

func main() {
	ctx := context.Background()

	// Postgres when DATABASE_URL is set, otherwise an in-memory store.
	var store campusnav.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Bulk insert using codes as refs ───────────────────────────────
	dist := func(m float64) *float64 { return &m }
	file := &campusfile.File{
		Buildings: []campusnav.Building{
			{Code: "ADMIN", Name: "Main Administrative Block", Latitude: 12.963514, Longitude: 77.505695, FloorCount: 3},
			{Code: "LIB", Name: "Central Library", Latitude: 12.964675, Longitude: 77.505570, FloorCount: 3},
			{Code: "CAF", Name: "Student Cafeteria", Latitude: 12.964537, Longitude: 77.505333, FloorCount: 2},
		},
		Waypoints: []campusnav.Waypoint{
			{Code: "WP-ADMIN", Name: "Admin Junction", Latitude: 12.963600, Longitude: 77.505800, WaypointType: "junction"},
			{Code: "WP-PLAZA", Name: "Central Plaza", Latitude: 12.963718, Longitude: 77.506037, WaypointType: "intersection"},
			{Code: "WP-LIB-PATH", Name: "Library Path", Latitude: 12.964400, Longitude: 77.505650, WaypointType: "pathway"},
		},
		Paths: []campusfile.PathSpec{
			{From: "ADMIN", To: "WP-ADMIN", Distance: dist(30), Accessible: true, Bidirectional: true},
			{From: "WP-ADMIN", To: "WP-PLAZA", Distance: dist(40), Accessible: true, Bidirectional: true},
			{From: "WP-PLAZA", To: "WP-LIB-PATH", Distance: dist(60), Accessible: true, Bidirectional: true},
			{From: "LIB", To: "WP-LIB-PATH", Distance: dist(25), Accessible: true, Bidirectional: true},
			// Distance left out: measured from the coordinates.
			{From: "ADMIN", To: "LIB", Type: campusnav.PathStairs, Bidirectional: true},
		},
	}
	campus, err := file.Resolve()
	if err != nil {
		log.Fatalf("resolve campus: %v", err)
	}
	if err := campusfile.Apply(ctx, store, campus); err != nil {
		log.Fatalf("load campus: %v", err)
	}
	fmt.Printf("campus loaded: %d buildings, %d waypoints, %d paths\n",
		len(campus.Buildings), len(campus.Waypoints), len(campus.Paths))

	svc := routing.New(store, routing.Options{Cache: true})
	admin, lib, caf := campus.Buildings[0].ID, campus.Buildings[1].ID, campus.Buildings[2].ID

	// ── Shortest route ────────────────────────────────────────────────
	res, err := svc.Route(ctx, routing.Request{StartBuildingID: admin, EndBuildingID: lib})
	if err != nil {
		log.Fatalf("route: %v", err)
	}
	fmt.Println("\nroute ADMIN -> LIB:")
	printJSON(res)

	// ── Step-free route avoids the stairs ─────────────────────────────
	res, err = svc.Route(ctx, routing.Request{StartBuildingID: admin, EndBuildingID: lib, AccessibleOnly: true})
	if err != nil {
		log.Fatalf("route: %v", err)
	}
	fmt.Printf("\naccessible route ADMIN -> LIB: %.2fm, %d min\n", res.TotalDistance, res.EstimatedMinutes)

	// ── No route until the cafeteria is connected ─────────────────────
	res, err = svc.Route(ctx, routing.Request{StartBuildingID: admin, EndBuildingID: caf})
	if err != nil {
		log.Fatalf("route: %v", err)
	}
	fmt.Printf("\nroute ADMIN -> CAF found: %v\n", res != nil)

	libPath := campus.Waypoints[2].Node()
	for _, p := range []campusnav.Path{
		{Source: libPath, Destination: campusnav.BuildingNode(caf), Distance: 40, Accessible: true},
		{Source: campusnav.BuildingNode(caf), Destination: libPath, Distance: 40, Accessible: true},
	} {
		id, err := store.AddPath(ctx, &p)
		if err != nil {
			log.Fatalf("add path: %v", err)
		}
		fmt.Printf("added path: %d\n", id)
	}

	res, err = svc.Route(ctx, routing.Request{StartBuildingID: admin, EndBuildingID: caf})
	if err != nil {
		log.Fatalf("route: %v", err)
	}
	fmt.Println("route ADMIN -> CAF directions:")
	for _, d := range res.Directions {
		fmt.Printf("  %d. %s\n", d.Step, d.Instruction)
	}

	// ── Nearest nodes ─────────────────────────────────────────────────
	near, err := svc.Nearest(ctx, 12.9640, 77.5058, 3, 0)
	if err != nil {
		log.Fatalf("nearest: %v", err)
	}
	fmt.Println("\nnearest to 12.9640, 77.5058:")
	printJSON(near)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DropSchema(ctx); err != nil {
		log.Fatalf("drop: %v", err)
	}
	fmt.Println("\nschema dropped")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
