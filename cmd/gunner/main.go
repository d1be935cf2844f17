// Command gunner runs headless players against a DOMEFALL server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/everforgeworks/domefall/internal/config"
	"github.com/everforgeworks/domefall/internal/game"
	"github.com/everforgeworks/domefall/internal/gunner"
	"github.com/everforgeworks/domefall/internal/logging"
)

var palette = []string{"#F44336", "#2196F3", "#FF9800", "#9C27B0", "#00BCD4", "#8BC34A"}

func main() {
	cfgPath := flag.String("config", "", "optional settings file")
	flag.Parse()

	cfg, err := config.LoadGunner(*cfgPath)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("settings")
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Pretty, nil)

	rules, err := game.LoadRules(cfg.RulesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.RulesPath).Msg("rules")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Int("bots", cfg.Bots).Int("players", cfg.Players).Str("server", cfg.URL).Msg("starting gunners")

	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.Bots {
		profile := gunner.Profile{
			Name:     fmt.Sprintf("%s %d", cfg.NamePrefix, i+1),
			Color:    palette[i%len(palette)],
			DomeType: cfg.DomeType,
			Players:  cfg.Players,
		}
		gun := gunner.New(log, rules, profile, seed+uint64(i))
		g.Go(func() error {
			res, err := gun.Play(gctx, cfg.URL)
			if err != nil {
				return fmt.Errorf("%s: %w", profile.Name, err)
			}
			log.Info().Str("gunner", profile.Name).Str("room", res.RoomID).
				Bool("won", res.Won).Bool("draw", res.Draw).Int("turns", res.Turns).Msg("done")
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("gunners stopped")
	}
}
