/*
Package main
File: main.go
Description: Server entry point. Loads settings and the battlefield balance,
runs the WebSocket hub loop and the HTTP server, reloads the balance on SIGHUP
and shuts down cleanly on SIGINT/SIGTERM.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/everforgeworks/domefall/internal/api"
	"github.com/everforgeworks/domefall/internal/config"
	"github.com/everforgeworks/domefall/internal/game"
	"github.com/everforgeworks/domefall/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "optional settings file (yaml, toml or json)")
	flag.Parse()

	// 1. Settings first; nothing else can be configured without them
	cfg, err := config.LoadServer(*cfgPath)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("settings")
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Pretty, nil)

	// 2. Load the static battlefield balance from YAML
	rules, err := game.LoadRules(cfg.RulesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.RulesPath).Msg("rules")
	}

	// 3. Pick who decides what a shot hit
	var arbiter game.Arbiter = game.TrustReports{}
	if cfg.ImpactMode == config.ImpactRecompute {
		arbiter = game.RecomputeHits{}
	}

	metrics, err := api.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("metrics")
	}

	// 4. Initialize the real-time hub and the router
	hub := api.NewHub(log, api.HubConfig{
		SendBuffer:   cfg.WS.SendBuffer,
		PingInterval: cfg.WS.PingInterval,
		PongWait:     cfg.WS.PongWait,
	}, rules, arbiter, metrics)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewHandlers(hub, log).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := hub.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// 5. Start the server
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("impact", cfg.ImpactMode).Msg("DOMEFALL server live")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	// 6. Hot-reload: SIGHUP refreshes the balance for matches created afterwards
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				next, err := game.LoadRules(cfg.RulesPath)
				if err != nil {
					log.Error().Err(err).Str("path", cfg.RulesPath).Msg("reload rejected, keeping current rules")
					continue
				}
				hub.Coordinator().SetRules(next)
				log.Info().Str("path", cfg.RulesPath).Msg("rules reloaded")
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("bye")
}
