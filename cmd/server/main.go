package main

import (
	"context"
	"flag"
	"maps"
	"net"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/rs/zerolog/log"

	"partygame"
	"partygame/internal/config"
	"partygame/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to server.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)
	log.Info().
		Int("maxPlayers", cfg.Game.MaxPlayers).
		Strs("games", gameTypes(cfg)).
		Msg("loaded configuration")

	app, err := NewApp(cfg, partygame.PromptsYAML, nil)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", app.Addr())
	if err != nil {
		return err
	}
	return app.Serve(ctx, ln)
}

func gameTypes(cfg *config.ServerConfig) []string {
	return slices.Sorted(maps.Keys(cfg.Game.Types))
}
