package main

import (
	"fmt"
	"os"
	"sort"

	"partygame/internal/game"
)

func main() {
	fmt.Println("Party Game Prompt Bank")
	fmt.Println("======================")
	fmt.Println()

	// Load the prompt bank - try multiple paths
	possiblePaths := []string{
		"static/prompts.yaml",
		"../../static/prompts.yaml",
		os.Getenv("PRJ_ROOT") + "/static/prompts.yaml",
	}
	if len(os.Args) > 1 {
		possiblePaths = os.Args[1:2]
	}

	var data []byte
	var err error
	var foundPath string

	for _, path := range possiblePaths {
		data, err = os.ReadFile(path)
		if err == nil {
			foundPath = path
			break
		}
	}

	if err != nil {
		fmt.Printf("Error reading prompts.yaml: %v\n", err)
		os.Exit(1)
	}

	bank, err := game.LoadPromptBank(data)
	if err != nil {
		fmt.Printf("Invalid prompt bank: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s\n\n", foundPath)

	registered := map[string]bool{
		game.TypeBluffTrivia:     true,
		game.TypeFibbingIt:       true,
		game.TypeWordAssociation: true,
	}

	for _, gameType := range bank.Types() {
		prompts := bank.For(gameType)
		categories := map[string]int{}
		missingAnswers := 0
		for _, p := range prompts {
			categories[p.Category]++
			if p.Answer == "" {
				missingAnswers++
			}
		}

		fmt.Printf("%s: %d prompts\n", gameType, len(prompts))
		if !registered[gameType] {
			fmt.Println("  WARNING: no engine plays this game type")
		}
		if gameType == game.TypeBluffTrivia && missingAnswers > 0 {
			fmt.Printf("  WARNING: %d prompts have no answer\n", missingAnswers)
		}

		names := make([]string, 0, len(categories))
		for name := range categories {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			label := name
			if label == "" {
				label = "(uncategorized)"
			}
			fmt.Printf("  %-16s %d\n", label, categories[name])
		}
		fmt.Println()
	}
}
