package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/j-emberton/HXforge/internal/api"
	"github.com/j-emberton/HXforge/internal/config"
	"github.com/j-emberton/HXforge/internal/engine"
	"github.com/j-emberton/HXforge/internal/metrics"
	"github.com/j-emberton/HXforge/internal/watch"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		addr       string
		tablesDir  string
	)

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve fluid property tables over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Address = addr
			}
			if cmd.Flags().Changed("tables") {
				cfg.Tables.Dir = tablesDir
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	cmd.Flags().StringVar(&tablesDir, "tables", "", "table directory (overrides tables.dir)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseLevel(s string) log.Lvl {
	switch s {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

func run(cfg config.Config) error {
	logger := log.New("hxforge")
	logger.SetLevel(parseLevel(cfg.Log.Level))
	log.SetLevel(parseLevel(cfg.Log.Level))

	opts, err := cfg.Tables.LoadOptions()
	if err != nil {
		return err
	}
	bounds, err := cfg.Tables.BoundsPolicy()
	if err != nil {
		return err
	}

	m := metrics.New()
	store := engine.NewTableStore(engine.DirResolver{Dir: cfg.Tables.Dir, Ext: cfg.Tables.Ext}, opts)
	store.OnLoad = m.ObserveLoad

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tables.Watch {
		tw, err := watch.New(cfg.Tables.Dir, cfg.Tables.Ext, store)
		if err != nil {
			logger.Warnf("table watching disabled: %v", err)
		} else {
			// the gauge is reset until the next Get reloads the table
			tw.Changed = func(fluid string) {
				m.ForgetTable(fluid)
				logger.Infof("fluid table %q changed on disk", fluid)
			}
			defer tw.Close()
			go tw.Run(ctx)
		}
	}

	// 1. Initialize Handler; the API is live but /api/health is 503 until preload ends
	h := api.NewHandler(store, m, bounds)
	h.RegisterBackend("water-liquid", engine.Water25C)
	e := api.NewEcho(h, logger)

	// 2. Preload configured fluids in the background
	go func() {
		t0 := time.Now()
		logger.Infof("preloading %d fluid table(s)", len(cfg.Server.Preload))
		if err := store.Preload(cfg.Server.Preload...); err != nil {
			logger.Errorf("preload: %v", err)
		}
		h.SetReady()
		logger.Infof("preload complete in %v", time.Since(t0))
	}()

	// 3. Start Server
	errc := make(chan error, 1)
	go func() {
		logger.Infof("server ready on %s (tables from %s)", cfg.Server.Address, cfg.Tables.Dir)
		errc <- e.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
