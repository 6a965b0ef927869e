package game

import (
	"context"
	"errors"
	"fmt"

	"jigsaw-online/internal/jigsaw"
	"jigsaw-online/internal/model"
	"jigsaw-online/internal/repository"
)

// PlayerStore is the jigsaw.Store of one signed-in player
type PlayerStore struct {
	repo   repository.Repository
	userID string
}

func NewPlayerStore(repo repository.Repository, userID string) *PlayerStore {
	return &PlayerStore{repo: repo, userID: userID}
}

// FetchPuzzle loads the puzzle and the player's unfinished progress on it.
// Progress on an already completed puzzle is not resumed.
func (s *PlayerStore) FetchPuzzle(ctx context.Context, puzzleID string) (*jigsaw.PuzzleData, error) {
	puzzle, err := s.repo.GetPuzzleByID(ctx, puzzleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, jigsaw.Permanent(fmt.Errorf("puzzle %s: %w", puzzleID, err))
		}
		return nil, err
	}

	data := &jigsaw.PuzzleData{
		ID:         puzzle.ID,
		PieceCount: puzzle.Pieces,
		ImageRef:   puzzle.Thumbnail,
	}

	progress, err := s.repo.GetProgress(ctx, s.userID, puzzleID)
	if err != nil {
		return nil, err
	}
	if progress != nil && !progress.IsCompleted() {
		data.Prior = &jigsaw.Progress{
			CompletedPieceIDs: []int(progress.CompletedPieces),
			ElapsedSeconds:    progress.Time,
			MoveCount:         progress.Moves,
		}
	}
	return data, nil
}

func (s *PlayerStore) SaveProgress(ctx context.Context, puzzleID string, p jigsaw.Progress) error {
	return s.repo.UpsertProgress(ctx, &model.Progress{
		UserID:          s.userID,
		PuzzleID:        puzzleID,
		CompletedPieces: model.PieceIDsJSON(p.CompletedPieceIDs),
		Time:            p.ElapsedSeconds,
		Moves:           p.MoveCount,
	})
}

func (s *PlayerStore) SaveCompletion(ctx context.Context, puzzleID string, c jigsaw.Completion) error {
	return s.repo.CompleteProgress(ctx, s.userID, puzzleID, c.ElapsedSeconds, c.MoveCount)
}

func (s *PlayerStore) IncrementStats(ctx context.Context, puzzlesCompleted, points int) error {
	return s.repo.IncrementStats(ctx, s.userID, model.ProfileStats{
		PuzzlesCompleted: puzzlesCompleted,
		TotalPoints:      points,
	})
}
