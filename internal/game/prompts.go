package game

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Prompt is a question (or seed word) shown at the start of a round.
// Answer is empty for games without a true answer.
type Prompt struct {
	ID       string `yaml:"id" json:"id"`
	Text     string `yaml:"text" json:"text"`
	Answer   string `yaml:"answer" json:"answer,omitempty"`
	Category string `yaml:"category" json:"category,omitempty"`
}

// PromptBank holds the prompts for every game type
type PromptBank struct {
	sets map[string][]Prompt
}

// LoadPromptBank parses a YAML document keyed by game type.
func LoadPromptBank(data []byte) (*PromptBank, error) {
	var sets map[string][]Prompt
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("failed to parse prompt bank: %w", err)
	}

	for gameType, prompts := range sets {
		seen := make(map[string]bool, len(prompts))
		for i, p := range prompts {
			if p.ID == "" || p.Text == "" {
				return nil, fmt.Errorf("prompt %d of %s: id and text are required", i, gameType)
			}
			if seen[p.ID] {
				return nil, fmt.Errorf("prompt %s of %s: duplicate id", p.ID, gameType)
			}
			seen[p.ID] = true
		}
	}

	return &PromptBank{sets: sets}, nil
}

// NewPromptBank builds a bank from in-memory prompt sets
func NewPromptBank(sets map[string][]Prompt) *PromptBank {
	return &PromptBank{sets: sets}
}

// For returns a copy of the prompts for a game type
func (b *PromptBank) For(gameType string) []Prompt {
	if b == nil {
		return nil
	}
	return append([]Prompt(nil), b.sets[gameType]...)
}

// Types lists the game types the bank has prompts for
func (b *PromptBank) Types() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.sets))
}
