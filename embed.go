package partygame

import (
	_ "embed"
)

// Embed the prompt bank shared by all game engines
//
//go:embed static/prompts.yaml
var PromptsYAML []byte
