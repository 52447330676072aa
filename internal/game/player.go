package game

// DefaultAvatar is used when a player joins without choosing one.
const DefaultAvatar = "🙂"

// Player represents a participant in a room
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// NewPlayer creates a connected player with a zero score
func NewPlayer(id, name, avatar string) Player {
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return Player{
		ID:        id,
		Name:      name,
		Avatar:    avatar,
		Connected: true,
	}
}

func clonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

func indexOfPlayer(players []Player, id string) int {
	for i := range players {
		if players[i].ID == id {
			return i
		}
	}
	return -1
}
