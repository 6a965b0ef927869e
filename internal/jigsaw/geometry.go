package jigsaw

import (
	"math"
	"math/rand"
)

// Point is a position in board space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in board space
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Distance returns the Euclidean distance between p and q
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Add returns p translated by (dx, dy)
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// PieceTemplate is the generated geometry of one piece
type PieceTemplate struct {
	ID      int   `json:"id"`
	Correct Point `json:"correct"`
	Initial Point `json:"initial"`
	Size    Size  `json:"size"`
}

// MaxPieces is the largest piece count a layout accepts
const MaxPieces = 10000

// GridSize returns the side of the smallest square grid holding pieceCount cells
func GridSize(pieceCount int) int {
	if pieceCount <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(pieceCount))))
}

// GenerateLayout partitions a board into a square grid and places pieceCount pieces.
//
// Correct slots fill the grid row by row and depend only on the inputs. Initial
// positions are drawn uniformly so that a piece always fits inside the board;
// pieces may overlap. A nil rng uses a freshly seeded source.
func GenerateLayout(pieceCount int, boardWidth, boardHeight float64, rng *rand.Rand) ([]PieceTemplate, error) {
	if pieceCount < 0 || pieceCount > MaxPieces {
		return nil, &InputOutOfRangeError{Field: "pieceCount", Value: float64(pieceCount)}
	}
	if !positiveFinite(boardWidth) {
		return nil, &InputOutOfRangeError{Field: "boardWidth", Value: boardWidth}
	}
	if !positiveFinite(boardHeight) {
		return nil, &InputOutOfRangeError{Field: "boardHeight", Value: boardHeight}
	}
	if pieceCount == 0 {
		return []PieceTemplate{}, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	gridSize := GridSize(pieceCount)
	size := Size{
		Width:  boardWidth / float64(gridSize),
		Height: boardHeight / float64(gridSize),
	}

	pieces := make([]PieceTemplate, 0, pieceCount)
	for i := 0; i < pieceCount; i++ {
		row := i / gridSize
		col := i % gridSize
		pieces = append(pieces, PieceTemplate{
			ID: i,
			Correct: Point{
				X: float64(col) * size.Width,
				Y: float64(row) * size.Height,
			},
			Initial: Point{
				X: rng.Float64() * (boardWidth - size.Width),
				Y: rng.Float64() * (boardHeight - size.Height),
			},
			Size: size,
		})
	}
	return pieces, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
