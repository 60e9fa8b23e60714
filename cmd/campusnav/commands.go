package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/campusfile"
	"github.com/meikuraledutech/campusnav/routing"
	"github.com/meikuraledutech/campusnav/server"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, store, svc, closeStore, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	log := slog.Default()
	app := server.New(store, svc, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "store", cfg.Store.Driver,
			"build_mode", cfg.Routing.BuildMode, "cache_graph", cfg.Routing.CacheGraph)
		errc <- app.Listen(cfg.ListenAddr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func runSchema(create bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if create {
			if err := store.CreateSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema created")
			return nil
		}
		if err := store.DropSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema dropped")
		return nil
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	// The file to seed is the argument, not the startup campus file.
	if err := cmd.Flags().Set("campus", args[0]); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	c, err := campusfile.Load(args[0])
	if err != nil {
		return err
	}
	if err := store.CreateSchema(cmd.Context()); err != nil {
		return err
	}
	if err := campusfile.Apply(cmd.Context(), store, c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d buildings, %d waypoints, %d paths\n",
		len(c.Buildings), len(c.Waypoints), len(c.Paths))
	return nil
}

func runRoute(cmd *cobra.Command, args []string) error {
	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid start building id %q", args[0])
	}
	end, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid end building id %q", args[1])
	}

	_, _, svc, closeStore, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := svc.Route(cmd.Context(), routing.Request{
		StartBuildingID: start,
		EndBuildingID:   end,
		AccessibleOnly:  accessibleOnly,
	})
	if err != nil {
		return err
	}
	if res == nil {
		return errors.New("no route found between buildings")
	}
	return printJSON(cmd, res)
}

func runNearest(cmd *cobra.Command, args []string) error {
	var kind campusnav.Kind
	if nearKind != "" {
		k, err := campusnav.ParseKind(nearKind)
		if err != nil {
			return err
		}
		kind = k
	}

	_, _, svc, closeStore, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	matches, err := svc.Nearest(cmd.Context(), nearLat, nearLon, nearK, kind)
	if err != nil {
		return err
	}
	return printJSON(cmd, matches)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
