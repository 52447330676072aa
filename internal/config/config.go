package config

import (
	"fmt"
	"time"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig represents the server configuration
type ServerConfig struct {
	Server ServerSettings `yaml:"server"`
	Game   GameSettings   `yaml:"game"`
}

// ServerSettings contains server-wide settings
type ServerSettings struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"` // 0 for SSE and websocket support
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit"`      // requests per second
	RateLimitBurst int     `yaml:"rateLimitBurst"` // burst size

	// Per-connection limit on game actions sent over the websocket
	ActionRateLimit float64 `yaml:"actionRateLimit"`
	ActionBurst     int     `yaml:"actionBurst"`

	MaxRequestSize int64 `yaml:"maxRequestSize"`

	AllowedOrigins []string `yaml:"allowedOrigins"` // empty allows any origin

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"` // text or json
}

// GameSettings controls rooms, timers and engines
type GameSettings struct {
	MinPlayers     int `yaml:"minPlayers"`
	MaxPlayers     int `yaml:"maxPlayers"`
	RoomCodeLength int `yaml:"roomCodeLength"`

	TickInterval       time.Duration `yaml:"tickInterval"`       // one countdown second
	TimerSweepInterval time.Duration `yaml:"timerSweepInterval"` // orphaned timer check
	CleanupInterval    time.Duration `yaml:"cleanupInterval"`
	InactiveTimeout    time.Duration `yaml:"inactiveTimeout"`

	Scoring ScoringSettings             `yaml:"scoring"`
	Types   map[string]GameTypeSettings `yaml:"types"`
}

// ScoringSettings holds the point values used by the engines
type ScoringSettings struct {
	CorrectAnswer int `yaml:"correctAnswer"`
	BluffPoints   int `yaml:"bluffPoints"`
	VotePoints    int `yaml:"votePoints"`
	MatchPoints   int `yaml:"matchPoints"`
}

// GameTypeSettings overrides the defaults of one game type
type GameTypeSettings struct {
	MaxRounds int            `yaml:"maxRounds"`
	Phases    map[string]int `yaml:"phases"` // seconds, keyed by phase name
}

// DefaultConfig returns a default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Port:            "", // Must be set via env
			Host:            "", // Must be set via env
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,

			RateLimit:       10,
			RateLimitBurst:  20,
			ActionRateLimit: 5,
			ActionBurst:     10,

			MaxRequestSize: 1048576, // 1MB

			LogLevel:  "info",
			LogFormat: "text",
		},
		Game: GameSettings{
			MinPlayers:     2,
			MaxPlayers:     8,
			RoomCodeLength: 4,

			TickInterval:       time.Second,
			TimerSweepInterval: time.Minute,
			CleanupInterval:    5 * time.Minute,
			InactiveTimeout:    30 * time.Minute,

			Scoring: ScoringSettings{
				CorrectAnswer: 1000,
				BluffPoints:   500,
				VotePoints:    500,
				MatchPoints:   100,
			},
			Types: map[string]GameTypeSettings{
				"bluff-trivia": {
					MaxRounds: 5,
					Phases:    map[string]int{"prompt": 15, "choose": 20, "scoring": 6},
				},
				"fibbing-it": {
					MaxRounds: 5,
					Phases:    map[string]int{"prompt": 25, "choose": 20, "reveal": 15, "scoring": 6},
				},
				"word-association": {
					MaxRounds: 5,
					Phases:    map[string]int{"prompt": 45, "scoring": 15},
				},
			},
		},
	}
}

// Validate checks if the configuration is valid
func (c *ServerConfig) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT environment variable must be set")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HOST environment variable must be set")
	}
	switch c.Server.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("logFormat must be text or json, got %q", c.Server.LogFormat)
	}

	g := c.Game
	if g.MinPlayers < 1 {
		return fmt.Errorf("minPlayers must be at least 1")
	}
	if g.MaxPlayers < g.MinPlayers {
		return fmt.Errorf("maxPlayers cannot be less than minPlayers")
	}
	if g.RoomCodeLength < 4 || g.RoomCodeLength > 8 {
		return fmt.Errorf("roomCodeLength must be between 4 and 8")
	}
	if g.TickInterval <= 0 {
		return fmt.Errorf("tickInterval must be positive")
	}
	if g.CleanupInterval <= 0 || g.InactiveTimeout <= 0 {
		return fmt.Errorf("cleanupInterval and inactiveTimeout must be positive")
	}

	for name, t := range g.Types {
		if t.MaxRounds < 0 {
			return fmt.Errorf("game type %s: maxRounds cannot be negative", name)
		}
		for phase, seconds := range t.Phases {
			if seconds < 0 {
				return fmt.Errorf("game type %s: phase %s duration cannot be negative", name, phase)
			}
		}
	}

	return nil
}
