package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"sync"

	"jigsaw-online/internal/model"
)

//go:embed catalog.json
var catalogJSON []byte

var (
	catalogOnce    sync.Once
	catalogPuzzles []model.Puzzle
)

// SamplePuzzles returns the built-in puzzle catalogue with piece counts derived from difficulty
func SamplePuzzles() []model.Puzzle {
	catalogOnce.Do(func() {
		var puzzles []model.Puzzle
		if err := json.Unmarshal(catalogJSON, &puzzles); err != nil {
			log.Printf("Error parsing sample catalogue: %v", err)
			return
		}
		for i := range puzzles {
			puzzles[i].Difficulty = model.NormalizeDifficulty(puzzles[i].Difficulty)
			puzzles[i].Pieces = model.PieceCountFor(puzzles[i].Difficulty)
		}
		catalogPuzzles = puzzles
	})
	return catalogPuzzles
}
