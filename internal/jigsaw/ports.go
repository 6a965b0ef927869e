package jigsaw

import "context"

// PuzzleData is what the session needs from the remote store to lay out a puzzle
type PuzzleData struct {
	ID         string
	PieceCount int
	ImageRef   string
	// Prior is nil when the player has no saved, unfinished progress
	Prior *Progress
}

// Progress is the resumable part of a session
type Progress struct {
	CompletedPieceIDs []int `json:"completedPieces"`
	ElapsedSeconds    int   `json:"time"`
	MoveCount         int   `json:"moves"`
}

// Completion is the terminal record written once a puzzle is solved
type Completion struct {
	ElapsedSeconds int `json:"time"`
	MoveCount      int `json:"moves"`
	Score          int `json:"score"`
}

// Store is the remote data collaborator. Implementations are bound to one player.
type Store interface {
	FetchPuzzle(ctx context.Context, puzzleID string) (*PuzzleData, error)
	SaveProgress(ctx context.Context, puzzleID string, p Progress) error
	SaveCompletion(ctx context.Context, puzzleID string, c Completion) error
	IncrementStats(ctx context.Context, puzzlesCompleted, points int) error
}

// PulseKind selects the device feedback pattern
type PulseKind string

const (
	PulseLight   PulseKind = "light"
	PulseSuccess PulseKind = "success"
)

// Feedback triggers device feedback. Pulse is called with the session locked and must not block.
type Feedback interface {
	Pulse(kind PulseKind) error
}

// Result is emitted exactly once when a session completes
type Result struct {
	PuzzleID       string `json:"puzzleId"`
	ElapsedSeconds int    `json:"time"`
	MoveCount      int    `json:"moves"`
	Score          int    `json:"score"`
}
