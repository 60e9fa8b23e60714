package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCampus = "../../campusfile/testdata/campus.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CAMPUSNAV_LOG_LEVEL", "error")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		accessibleOnly = false
		nearKind = ""
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	out, err := execute(t, "route", "5", "6", "--accessible", "--store", "memory", "--campus", testCampus)
	require.NoError(t, err)

	var res struct {
		TotalDistance float64 `json:"total_distance"`
		WaypointCount int     `json:"waypoints_count"`
		Start         struct {
			Code string `json:"code"`
		} `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, 155.0, res.TotalDistance)
	assert.Equal(t, 3, res.WaypointCount)
	assert.Equal(t, "ADMIN", res.Start.Code)
}

func TestRouteCommandErrors(t *testing.T) {
	_, err := execute(t, "route", "x", "6", "--store", "memory", "--campus", testCampus)
	assert.ErrorContains(t, err, "invalid start building id")

	_, err = execute(t, "route", "5", "99", "--store", "memory", "--campus", testCampus)
	assert.Error(t, err)

	_, err = execute(t, "route", "5", "6", "--store", "nosql")
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestNearestCommand(t *testing.T) {
	out, err := execute(t, "nearest", "--lat", "12.963514", "--lon", "77.505695", "-k", "1",
		"--kind", "building", "--store", "memory", "--campus", testCampus)
	require.NoError(t, err)

	var matches []struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &matches), out)
	require.Len(t, matches, 1)
	assert.Equal(t, "ADMIN", matches[0].Code)
}

func TestSeedAndSchemaCommands(t *testing.T) {
	db := t.TempDir() + "/campus.db"

	out, err := execute(t, "schema", "create", "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "schema created")

	out, err = execute(t, "seed", testCampus, "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 3 buildings, 3 waypoints, 10 paths")

	out, err = execute(t, "schema", "drop", "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "schema dropped")
}
