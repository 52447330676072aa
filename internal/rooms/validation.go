package rooms

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"partygame/internal/game"
)

const (
	minCodeLength     = 4
	maxCodeLength     = 8
	minNicknameLength = 2
	maxNicknameLength = 20
)

// NormalizeRoomCode trims and upper-cases a room code and checks it is 4-8
// letters or digits.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return "", game.InvalidInput("room code must be %d-%d characters", minCodeLength, maxCodeLength)
	}
	for _, r := range code {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return "", game.InvalidInput("room code must be letters and digits only")
		}
	}
	return code, nil
}

// ValidateNickname trims a nickname and checks its length and characters
func ValidateNickname(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minNicknameLength || n > maxNicknameLength {
		return "", game.InvalidInput("nickname must be %d-%d characters", minNicknameLength, maxNicknameLength)
	}
	if strings.ContainsAny(name, `<>"'&`) {
		return "", game.InvalidInput("nickname contains invalid characters")
	}
	return name, nil
}
