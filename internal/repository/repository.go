package repository

import (
	"context"
	"errors"

	"jigsaw-online/internal/model"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the interface for all repository operations
type Repository interface {
	UserRepository
	PuzzleRepository
	ProgressRepository
	ProfileRepository
}

// UserRepository defines operations for user management
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// PuzzleRepository defines operations for the puzzle catalogue
type PuzzleRepository interface {
	CreatePuzzle(ctx context.Context, puzzle *model.Puzzle) error
	GetPuzzleByID(ctx context.Context, id string) (*model.Puzzle, error)
	GetFeaturedPuzzles(ctx context.Context, limit int) ([]*model.Puzzle, error)
	GetRecentPuzzles(ctx context.Context, limit int) ([]*model.Puzzle, error)
	SearchPuzzles(ctx context.Context, filter model.PuzzleFilter) ([]*model.Puzzle, error)
	GetPuzzlesByCreator(ctx context.Context, userID string) ([]*model.Puzzle, error)
	CountPuzzles(ctx context.Context) (int, error)
}

// ProgressRepository defines operations on saved puzzle progress
type ProgressRepository interface {
	GetProgress(ctx context.Context, userID, puzzleID string) (*model.Progress, error)
	UpsertProgress(ctx context.Context, progress *model.Progress) error
	CompleteProgress(ctx context.Context, userID, puzzleID string, elapsed, moves int) error
	GetInProgressPuzzles(ctx context.Context, userID string) ([]*model.UserPuzzle, error)
	GetCompletedPuzzles(ctx context.Context, userID string) ([]*model.UserPuzzle, error)
}

// ProfileRepository defines operations on profiles and the leaderboard
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	IncrementStats(ctx context.Context, userID string, delta model.ProfileStats) error
	GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
}
