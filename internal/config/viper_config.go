package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("server")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/partygame")
	}

	// PARTYGAME_GAME_MAXPLAYERS and friends work for every key
	v.SetEnvPrefix("partygame")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Short names for the settings deployments touch most
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.loglevel", "LOG_LEVEL")
	v.BindEnv("server.logformat", "LOG_FORMAT")
	v.BindEnv("server.ratelimit", "RATE_LIMIT")
	v.BindEnv("server.ratelimitburst", "RATE_LIMIT_BURST")
	v.BindEnv("server.maxrequestsize", "MAX_REQUEST_SIZE")
	v.BindEnv("game.maxplayers", "MAX_PLAYERS_PER_ROOM")
	v.BindEnv("game.inactivetimeout", "ROOM_INACTIVE_TIMEOUT")

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Game types missing from the file keep their built-in settings
	defaults := DefaultConfig().Game.Types
	if cfg.Game.Types == nil {
		cfg.Game.Types = map[string]GameTypeSettings{}
	}
	for name, t := range defaults {
		if _, ok := cfg.Game.Types[name]; !ok {
			cfg.Game.Types[name] = t
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *ServerConfig) {
	s := d.Server
	v.SetDefault("server.readtimeout", s.ReadTimeout)
	v.SetDefault("server.writetimeout", s.WriteTimeout)
	v.SetDefault("server.idletimeout", s.IdleTimeout)
	v.SetDefault("server.shutdowntimeout", s.ShutdownTimeout)
	v.SetDefault("server.requesttimeout", s.RequestTimeout)
	v.SetDefault("server.ratelimit", s.RateLimit)
	v.SetDefault("server.ratelimitburst", s.RateLimitBurst)
	v.SetDefault("server.actionratelimit", s.ActionRateLimit)
	v.SetDefault("server.actionburst", s.ActionBurst)
	v.SetDefault("server.maxrequestsize", s.MaxRequestSize)
	v.SetDefault("server.loglevel", s.LogLevel)
	v.SetDefault("server.logformat", s.LogFormat)

	g := d.Game
	v.SetDefault("game.minplayers", g.MinPlayers)
	v.SetDefault("game.maxplayers", g.MaxPlayers)
	v.SetDefault("game.roomcodelength", g.RoomCodeLength)
	v.SetDefault("game.tickinterval", g.TickInterval)
	v.SetDefault("game.timersweepinterval", g.TimerSweepInterval)
	v.SetDefault("game.cleanupinterval", g.CleanupInterval)
	v.SetDefault("game.inactivetimeout", g.InactiveTimeout)
	v.SetDefault("game.scoring.correctanswer", g.Scoring.CorrectAnswer)
	v.SetDefault("game.scoring.bluffpoints", g.Scoring.BluffPoints)
	v.SetDefault("game.scoring.votepoints", g.Scoring.VotePoints)
	v.SetDefault("game.scoring.matchpoints", g.Scoring.MatchPoints)
}
