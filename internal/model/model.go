package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Difficulty levels offered when creating a puzzle
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyExpert = "expert"
)

// DefaultCategory is used when a puzzle is created without one
const DefaultCategory = "Other"

// PieceCountFor maps a difficulty to its piece count. Unknown values fall back to medium.
func PieceCountFor(difficulty string) int {
	switch NormalizeDifficulty(difficulty) {
	case DifficultyEasy:
		return 16
	case DifficultyHard:
		return 64
	case DifficultyExpert:
		return 100
	default:
		return 36
	}
}

// NormalizeDifficulty lower-cases a difficulty and defaults it to medium
func NormalizeDifficulty(difficulty string) string {
	switch d := strings.ToLower(strings.TrimSpace(difficulty)); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return d
	default:
		return DifficultyMedium
	}
}

// ValidDifficulty reports whether difficulty names a known level
func ValidDifficulty(difficulty string) bool {
	switch strings.ToLower(difficulty) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Puzzle is an image-based jigsaw puzzle
type Puzzle struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Category    string `db:"category" json:"category"`
	Difficulty  string `db:"difficulty" json:"difficulty"`
	Pieces      int    `db:"pieces" json:"pieces"`
	Thumbnail   string `db:"thumbnail" json:"thumbnail"`
	Featured    bool   `db:"featured" json:"featured"`
	CreatorID   string `db:"creator_id" json:"creator_id"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

// PuzzleFilter narrows a puzzle search
type PuzzleFilter struct {
	Query      string
	Category   string
	Difficulty string
}

// PieceIDsJSON is a custom type for database storage of completed piece ids
type PieceIDsJSON []int

// Value implements driver.Valuer for database storage
func (p PieceIDsJSON) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (p *PieceIDsJSON) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*p = PieceIDsJSON{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("expected []byte or string, got %T", value)
	}
	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	*p = ids
	return nil
}

// Progress is a player's saved state on one puzzle
type Progress struct {
	UserID          string       `db:"user_id" json:"user_id"`
	PuzzleID        string       `db:"puzzle_id" json:"puzzle_id"`
	CompletedPieces PieceIDsJSON `db:"completed_pieces" json:"completed_pieces"`
	Time            int          `db:"time" json:"time"`
	Moves           int          `db:"moves" json:"moves"`
	CompletedAt     *string      `db:"completed_at" json:"completed_at"`
	UpdatedAt       string       `db:"updated_at" json:"updated_at"`
}

// IsCompleted reports whether the puzzle was finished
func (p *Progress) IsCompleted() bool {
	return p.CompletedAt != nil
}

// UserPuzzle is a puzzle listed on a player's own shelf
type UserPuzzle struct {
	Puzzle
	Progress      float64 `json:"progress,omitempty"` // percent of pieces placed
	CompletedDate string  `json:"completedDate,omitempty"`
}

// User represents a user in the system
type User struct {
	ID           string `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// ProfileStats are the counters shown on a profile
type ProfileStats struct {
	PuzzlesCompleted int `db:"puzzles_completed" json:"puzzlesCompleted"`
	PuzzlesCreated   int `db:"puzzles_created" json:"puzzlesCreated"`
	TotalPoints      int `db:"total_points" json:"totalPoints"`
}

// Profile is the public face of a user
type Profile struct {
	UserID      string `db:"user_id" json:"id"`
	DisplayName string `db:"display_name" json:"displayName"`
	ProfileStats
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// LeaderboardEntry is one ranked row of the leaderboard
type LeaderboardEntry struct {
	Rank             int    `db:"-" json:"rank"`
	UserID           string `db:"user_id" json:"id"`
	DisplayName      string `db:"display_name" json:"name"`
	Score            int    `db:"total_points" json:"score"`
	PuzzlesCompleted int    `db:"puzzles_completed" json:"puzzlesCompleted"`
}

// DisplayNameFromEmail derives a default display name from an email address
func DisplayNameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if name == "" {
		return "Puzzler"
	}
	return name
}
