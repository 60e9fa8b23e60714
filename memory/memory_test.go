package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/meikuraledutech/campusnav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildings(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.AddBuilding(ctx, &campusnav.Building{Name: "Main Block", Code: "MB"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = s.AddBuilding(ctx, &campusnav.Building{ID: 10, Name: "Library"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)

	id, err = s.AddBuilding(ctx, &campusnav.Building{Name: "Hostel"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id, "auto ids continue past explicit ones")

	_, err = s.AddBuilding(ctx, &campusnav.Building{ID: 10, Name: "Dup"})
	assert.Error(t, err)

	b, err := s.GetBuilding(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "Library", b.Name)

	b, err = s.GetBuilding(ctx, 99)
	assert.NoError(t, err)
	assert.Nil(t, b)

	list, err := s.ListBuildings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(11), list[2].ID)

	require.NoError(t, s.DeleteBuilding(ctx, 1))
	assert.ErrorIs(t, s.DeleteBuilding(ctx, 1), campusnav.ErrBuildingNotFound)
}

func TestWaypointsAndPaths(t *testing.T) {
	ctx := context.Background()
	s := New()

	wid, err := s.AddWaypoint(ctx, &campusnav.Waypoint{Name: "Gate", Code: "W1", WaypointType: "entrance"})
	require.NoError(t, err)

	pid, err := s.AddPath(ctx, &campusnav.Path{
		Source:      campusnav.BuildingNode(1),
		Destination: campusnav.WaypointNode(wid),
		Distance:    25,
		Accessible:  true,
	})
	require.NoError(t, err)

	paths, err := s.ListPaths(ctx)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, pid, paths[0].ID)
	assert.Equal(t, campusnav.WaypointNode(wid), paths[0].Destination)

	require.NoError(t, s.DeleteWaypoint(ctx, wid))
	paths, err = s.ListPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, paths, 1, "deleting a waypoint keeps its paths")

	require.NoError(t, s.DeletePath(ctx, pid))
	assert.ErrorIs(t, s.DeletePath(ctx, pid), campusnav.ErrPathNotFound)
	assert.ErrorIs(t, s.DeleteWaypoint(ctx, wid), campusnav.ErrWaypointNotFound)
}

func TestVersionBumpsOnWrite(t *testing.T) {
	ctx := context.Background()
	s := New()

	v0, _ := s.Version(ctx)
	_, err := s.AddBuilding(ctx, &campusnav.Building{Name: "A"})
	require.NoError(t, err)
	v1, _ := s.Version(ctx)
	assert.Greater(t, v1, v0)

	_, err = s.ListBuildings(ctx)
	require.NoError(t, err)
	v2, _ := s.Version(ctx)
	assert.Equal(t, v1, v2, "reads do not bump")

	require.NoError(t, s.DropSchema(ctx))
	v3, _ := s.Version(ctx)
	assert.Greater(t, v3, v2)
	list, _ := s.ListBuildings(ctx)
	assert.Empty(t, list)
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddWaypoint(ctx, &campusnav.Waypoint{Name: "w"})
			_, _ = s.ListWaypoints(ctx)
		}()
	}
	wg.Wait()

	list, err := s.ListWaypoints(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
	v, _ := s.Version(ctx)
	assert.Equal(t, int64(50), v)
}

func TestReplaceCampus(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.AddBuilding(ctx, &campusnav.Building{Name: "Old"})
	require.NoError(t, err)

	c := &campusnav.Campus{
		Buildings: []campusnav.Building{{ID: 5, Name: "Main Block"}, {Name: "Library"}},
		Waypoints: []campusnav.Waypoint{{Name: "Gate"}},
		Paths: []campusnav.Path{
			{Source: campusnav.BuildingNode(5), Destination: campusnav.WaypointNode(1), Distance: 10},
		},
	}
	require.NoError(t, s.ReplaceCampus(ctx, c))
	assert.Equal(t, int64(6), c.Buildings[1].ID)

	list, _ := s.ListBuildings(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "Main Block", list[0].Name)

	bad := &campusnav.Campus{
		Buildings: []campusnav.Building{{Name: "A"}, {ID: 1, Name: "B"}, {ID: 1, Name: "C"}},
	}
	assert.Error(t, s.ReplaceCampus(ctx, bad))
	list, _ = s.ListBuildings(ctx)
	assert.Len(t, list, 2, "failed replace leaves the store untouched")
	assert.Zero(t, bad.Buildings[0].ID, "failed replace leaves the input untouched")
}

func TestAddPathDefaultsType(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &campusnav.Path{Source: campusnav.BuildingNode(1), Destination: campusnav.BuildingNode(2), Distance: 5}
	_, err := s.AddPath(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, campusnav.PathWalkway, p.PathType)

	paths, _ := s.ListPaths(ctx)
	require.Len(t, paths, 1)
	assert.Equal(t, campusnav.PathWalkway, paths[0].PathType)
}

func TestAddPathsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()

	fwd := campusnav.Path{Source: campusnav.BuildingNode(1), Destination: campusnav.WaypointNode(1), Distance: 8, PathType: campusnav.PathRoad}
	ids, err := s.AddPaths(ctx, []campusnav.Path{fwd, fwd.Reverse()})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	v, _ := s.Version(ctx)
	assert.Equal(t, int64(1), v, "one batch is one write")

	_, err = s.AddPaths(ctx, []campusnav.Path{fwd, {ID: 2, Source: fwd.Destination, Destination: fwd.Source}})
	assert.Error(t, err)
	paths, _ := s.ListPaths(ctx)
	assert.Len(t, paths, 2)

	_, err = s.AddPaths(ctx, []campusnav.Path{fwd, {ID: 3, Source: fwd.Destination, Destination: fwd.Source}})
	assert.Error(t, err, "auto id 3 collides with explicit id 3 in the same batch")
	paths, _ = s.ListPaths(ctx)
	assert.Len(t, paths, 2)
}
