package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaywantadh/RelayByte/config"
	"github.com/jaywantadh/RelayByte/internal/activity"
	"github.com/jaywantadh/RelayByte/internal/api"
	"github.com/jaywantadh/RelayByte/internal/history"
	"github.com/jaywantadh/RelayByte/internal/relay"
	"github.com/jaywantadh/RelayByte/internal/session"
	"github.com/jaywantadh/RelayByte/internal/storage"
	"github.com/jaywantadh/RelayByte/internal/ws"
	"github.com/jaywantadh/RelayByte/pkg/env"
	"github.com/jaywantadh/RelayByte/pkg/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	env.LoadEnv()
	logging.InitLogger(env.GetEnv("DEBUG", "") != "")

	app := &cli.App{
		Name:  "RelayByte",
		Usage: "Real-time chunked file relay between paired peers",
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Start the relay server",
				Action:  runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Log.Fatal(err)
	}
}

func runServe(c *cli.Context) error {
	config.LoadConfig(".")
	cfg := config.Config

	// Directory bootstrap is best-effort; later writes surface real failures.
	for _, dir := range []string{cfg.TempDir, cfg.PublicDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.Log.WithError(err).Warnf("could not create directory %s", dir)
		}
	}

	store, err := storage.NewLocalStore(cfg.TempDir)
	if err != nil {
		return err
	}

	var hist *history.Store
	if h, err := history.Open(cfg.HistoryDBPath); err != nil {
		logging.Log.WithError(err).Warn("transfer history disabled")
	} else {
		hist = h
		defer hist.Close()
	}

	act := activity.NewLogger(cfg.LogDir)
	defer act.Close()

	reg := session.NewRegistry()
	engine := relay.NewEngine(reg, store, act, hist, cfg.CleanupInterval)
	hub := ws.NewHub(engine, cfg)
	srv := api.NewServer(cfg, reg, hist, hub)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	logging.Log.Infof("🚀 RelayByte listening on port %d", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Log.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Log.WithError(err).Warn("http shutdown did not drain cleanly")
	}

	// Tear down every active session before exit so no chunk blobs linger.
	engine.Sweep()
	logging.Log.Info("✅ shutdown complete")
	return nil
}
