package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile  string
	storeDriver string
	databaseURL string
	sqlitePath  string
	campusFile  string
	cacheGraph  bool
)

var rootCmd = &cobra.Command{
	Use:           "campusnav",
	Short:         "Campus navigation backend",
	Long:          `Stores campus buildings, waypoints and walkable paths, and answers shortest walking route queries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create or drop the store tables",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the tables if they don't exist",
	Args:  cobra.NoArgs,
	RunE:  runSchema(true),
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table",
	Args:  cobra.NoArgs,
	RunE:  runSchema(false),
}

var seedCmd = &cobra.Command{
	Use:   "seed <campus.yaml>",
	Short: "Load a campus file into the store",
	Long:  `Loads buildings, waypoints and paths from a YAML campus file. Postgres, SQLite and memory stores replace their contents in one transaction.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var routeCmd = &cobra.Command{
	Use:   "route <start-building-id> <end-building-id>",
	Short: "Print the shortest walking route between two buildings",
	Args:  cobra.ExactArgs(2),
	RunE:  runRoute,
}

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Print the campus nodes closest to a coordinate",
	Args:  cobra.NoArgs,
	RunE:  runNearest,
}

var (
	listenAddr     string
	accessibleOnly bool
	nearLat        float64
	nearLon        float64
	nearK          int
	nearKind       string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Store driver: postgres, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file")
	rootCmd.PersistentFlags().StringVar(&campusFile, "campus", "", "Campus YAML file loaded at startup")
	rootCmd.PersistentFlags().BoolVar(&cacheGraph, "cache-graph", false, "Reuse the routing graph until the data changes")

	serveCmd.Flags().StringVarP(&listenAddr, "addr", "a", "", "HTTP listen address")

	routeCmd.Flags().BoolVar(&accessibleOnly, "accessible", false, "Only use accessible paths")

	nearestCmd.Flags().Float64Var(&nearLat, "lat", 0, "Latitude in decimal degrees")
	nearestCmd.Flags().Float64Var(&nearLon, "lon", 0, "Longitude in decimal degrees")
	nearestCmd.Flags().IntVarP(&nearK, "k", "k", 5, "Number of nodes to return")
	nearestCmd.Flags().StringVar(&nearKind, "kind", "", "Only building or waypoint nodes")
	_ = nearestCmd.MarkFlagRequired("lat")
	_ = nearestCmd.MarkFlagRequired("lon")

	schemaCmd.AddCommand(schemaCreateCmd, schemaDropCmd)
	rootCmd.AddCommand(serveCmd, schemaCmd, seedCmd, routeCmd, nearestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
