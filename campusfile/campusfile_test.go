package campusfile

import (
	"context"
	"strings"
	"testing"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/memory"
	"github.com/meikuraledutech/campusnav/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load("testdata/campus.yaml")
	require.NoError(t, err)

	require.Len(t, c.Buildings, 3)
	assert.Equal(t, []int64{5, 6, 4}, []int64{c.Buildings[0].ID, c.Buildings[1].ID, c.Buildings[2].ID},
		"missing ids continue after the largest explicit id")
	require.Len(t, c.Waypoints, 3)
	assert.Equal(t, int64(1), c.Waypoints[0].ID)

	// 4 bidirectional paths, 2 one-way.
	require.Len(t, c.Paths, 10)
	first, back := c.Paths[0], c.Paths[1]
	assert.Equal(t, campusnav.BuildingNode(5), first.Source)
	assert.Equal(t, campusnav.WaypointNode(1), first.Destination)
	assert.Equal(t, first.Destination, back.Source)
	assert.Equal(t, first.Source, back.Destination)
	assert.Equal(t, campusnav.PathWalkway, first.PathType)
	assert.True(t, back.Accessible)

	stairs := c.Paths[8]
	assert.Equal(t, campusnav.PathStairs, stairs.PathType)
	assert.False(t, stairs.Accessible)
	// ADMIN to LIB is roughly 130m apart.
	assert.InDelta(t, 130, stairs.Distance, 5)

	explicit := c.Paths[9]
	assert.Equal(t, campusnav.WaypointNode(2), explicit.Source)
	assert.Equal(t, campusnav.BuildingNode(4), explicit.Destination)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "buildings:\n  - {code: A, nmae: x}\n",
		"duplicate code": "buildings:\n  - {code: A}\nwaypoints:\n  - {code: A}\n",
		"duplicate id":   "buildings:\n  - {id: 1, code: A}\n  - {id: 1, code: B}\n",
		"unknown ref":    "buildings:\n  - {code: A}\npaths:\n  - {from: A, to: B}\n",
		"missing id ref": "buildings:\n  - {code: A}\npaths:\n  - {from: A, to: \"building:9\"}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	c, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Buildings)
	assert.Empty(t, c.Paths)
}

func TestApplyImporter(t *testing.T) {
	ctx := context.Background()
	c, err := Load("testdata/campus.yaml")
	require.NoError(t, err)

	s := memory.New()
	_, err = s.AddBuilding(ctx, &campusnav.Building{ID: 99, Name: "Stale"})
	require.NoError(t, err)

	require.NoError(t, Apply(ctx, s, c))
	got, err := s.GetBuilding(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, got, "importers replace existing records")

	paths, err := s.ListPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, paths, 10)
}

// addOnly hides the Importer of the wrapped store.
type addOnly struct{ campusnav.Store }

func TestApplyAddsRecords(t *testing.T) {
	ctx := context.Background()
	c, err := Load("testdata/campus.yaml")
	require.NoError(t, err)

	s, err := sqlite.Open(t.TempDir() + "/campus.db")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.CreateSchema(ctx))

	require.NoError(t, Apply(ctx, addOnly{s}, c))

	cse, err := s.GetBuilding(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, cse)
	assert.Equal(t, "CSE", cse.Code)

	waypoints, err := s.ListWaypoints(ctx)
	require.NoError(t, err)
	assert.Len(t, waypoints, 3)
}
