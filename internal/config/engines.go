package config

import "partygame/internal/game"

// EngineOptions converts the game settings into per-type engine options.
func (g GameSettings) EngineOptions() map[string]game.Options {
	scoring := game.Scoring{
		CorrectAnswer: g.Scoring.CorrectAnswer,
		BluffPoints:   g.Scoring.BluffPoints,
		VotePoints:    g.Scoring.VotePoints,
		MatchPoints:   g.Scoring.MatchPoints,
	}

	out := make(map[string]game.Options, len(g.Types))
	for name, t := range g.Types {
		durations := make(map[game.PhaseName]int, len(t.Phases))
		for phase, seconds := range t.Phases {
			durations[game.PhaseName(phase)] = seconds
		}
		out[name] = game.Options{
			MaxRounds:  t.MaxRounds,
			MinPlayers: g.MinPlayers,
			Durations:  durations,
			Scoring:    scoring,
		}
	}
	return out
}
