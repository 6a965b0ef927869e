package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"jigsaw-online/internal/model"

	"github.com/jmoiron/sqlx"
)

// SQLiteRepository implements the Repository interface using SQLite
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(db *sqlx.DB) Repository {
	return &SQLiteRepository{db: db}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// UserRepository implementation

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user.CreatedAt == "" {
		user.CreatedAt = now()
	}
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`
	if err := r.db.GetContext(ctx, user, query, id); err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`
	if err := r.db.GetContext(ctx, user, query, email); err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// PuzzleRepository implementation

const puzzleColumns = `id, name, description, category, difficulty, pieces, thumbnail, featured, creator_id, created_at`

func (r *SQLiteRepository) CreatePuzzle(ctx context.Context, puzzle *model.Puzzle) error {
	if puzzle.CreatedAt == "" {
		puzzle.CreatedAt = now()
	}
	query := `
		INSERT INTO puzzles (` + puzzleColumns + `)
		VALUES (:id, :name, :description, :category, :difficulty, :pieces, :thumbnail, :featured, :creator_id, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, puzzle)
	return err
}

func (r *SQLiteRepository) GetPuzzleByID(ctx context.Context, id string) (*model.Puzzle, error) {
	puzzle := &model.Puzzle{}
	query := `SELECT ` + puzzleColumns + ` FROM puzzles WHERE id = ?`
	if err := r.db.GetContext(ctx, puzzle, query, id); err != nil {
		return nil, notFound(err)
	}
	return puzzle, nil
}

func (r *SQLiteRepository) GetFeaturedPuzzles(ctx context.Context, limit int) ([]*model.Puzzle, error) {
	var puzzles []*model.Puzzle
	query := `SELECT ` + puzzleColumns + ` FROM puzzles WHERE featured = 1 ORDER BY created_at DESC, rowid DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &puzzles, query, limit); err != nil {
		return nil, err
	}
	return puzzles, nil
}

func (r *SQLiteRepository) GetRecentPuzzles(ctx context.Context, limit int) ([]*model.Puzzle, error) {
	var puzzles []*model.Puzzle
	query := `SELECT ` + puzzleColumns + ` FROM puzzles ORDER BY created_at DESC, rowid DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &puzzles, query, limit); err != nil {
		return nil, err
	}
	return puzzles, nil
}

func (r *SQLiteRepository) SearchPuzzles(ctx context.Context, filter model.PuzzleFilter) ([]*model.Puzzle, error) {
	var (
		where []string
		args  []interface{}
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `name LIKE ?`)
		args = append(args, "%"+q+"%")
	}
	if filter.Category != "" {
		where = append(where, `category = ?`)
		args = append(args, filter.Category)
	}
	if filter.Difficulty != "" && filter.Difficulty != "all" {
		where = append(where, `difficulty = ?`)
		args = append(args, strings.ToLower(filter.Difficulty))
	}

	query := `SELECT ` + puzzleColumns + ` FROM puzzles`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	var puzzles []*model.Puzzle
	if err := r.db.SelectContext(ctx, &puzzles, query, args...); err != nil {
		return nil, err
	}
	return puzzles, nil
}

func (r *SQLiteRepository) GetPuzzlesByCreator(ctx context.Context, userID string) ([]*model.Puzzle, error) {
	var puzzles []*model.Puzzle
	query := `SELECT ` + puzzleColumns + ` FROM puzzles WHERE creator_id = ? ORDER BY created_at DESC, rowid DESC`
	if err := r.db.SelectContext(ctx, &puzzles, query, userID); err != nil {
		return nil, err
	}
	return puzzles, nil
}

func (r *SQLiteRepository) CountPuzzles(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM puzzles`)
	return n, err
}

// ProgressRepository implementation

func (r *SQLiteRepository) GetProgress(ctx context.Context, userID, puzzleID string) (*model.Progress, error) {
	progress := &model.Progress{}
	query := `
		SELECT user_id, puzzle_id, completed_pieces, time, moves, completed_at, updated_at
		FROM puzzle_progress WHERE user_id = ? AND puzzle_id = ?
	`
	err := r.db.GetContext(ctx, progress, query, userID, puzzleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return progress, nil
}

// UpsertProgress saves unfinished progress. A completed row is left untouched.
func (r *SQLiteRepository) UpsertProgress(ctx context.Context, progress *model.Progress) error {
	progress.UpdatedAt = now()
	query := `
		INSERT INTO puzzle_progress (user_id, puzzle_id, completed_pieces, time, moves, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, puzzle_id) DO UPDATE SET
			completed_pieces = excluded.completed_pieces,
			time = excluded.time,
			moves = excluded.moves,
			updated_at = excluded.updated_at
		WHERE puzzle_progress.completed_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, progress.UserID, progress.PuzzleID, progress.CompletedPieces,
		progress.Time, progress.Moves, progress.UpdatedAt)
	return err
}

func (r *SQLiteRepository) CompleteProgress(ctx context.Context, userID, puzzleID string, elapsed, moves int) error {
	ts := now()
	query := `
		INSERT INTO puzzle_progress (user_id, puzzle_id, time, moves, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, puzzle_id) DO UPDATE SET
			time = excluded.time,
			moves = excluded.moves,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, userID, puzzleID, elapsed, moves, ts, ts)
	return err
}

type userPuzzleRow struct {
	model.Puzzle
	CompletedPieces model.PieceIDsJSON `db:"completed_pieces"`
	CompletedAt     *string            `db:"completed_at"`
}

const userPuzzleColumns = `p.id, p.name, p.description, p.category, p.difficulty, p.pieces, p.thumbnail,
	p.featured, p.creator_id, p.created_at, pp.completed_pieces, pp.completed_at`

// GetInProgressPuzzles lists puzzles the user has progress on but hasn't finished
func (r *SQLiteRepository) GetInProgressPuzzles(ctx context.Context, userID string) ([]*model.UserPuzzle, error) {
	var rows []userPuzzleRow
	query := `
		SELECT ` + userPuzzleColumns + `
		FROM puzzle_progress pp JOIN puzzles p ON p.id = pp.puzzle_id
		WHERE pp.user_id = ? AND pp.completed_at IS NULL
		ORDER BY pp.updated_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	out := make([]*model.UserPuzzle, 0, len(rows))
	for _, row := range rows {
		up := &model.UserPuzzle{Puzzle: row.Puzzle}
		if row.Pieces > 0 {
			up.Progress = float64(len(row.CompletedPieces)) / float64(row.Pieces) * 100
		}
		out = append(out, up)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCompletedPuzzles(ctx context.Context, userID string) ([]*model.UserPuzzle, error) {
	var rows []userPuzzleRow
	query := `
		SELECT ` + userPuzzleColumns + `
		FROM puzzle_progress pp JOIN puzzles p ON p.id = pp.puzzle_id
		WHERE pp.user_id = ? AND pp.completed_at IS NOT NULL
		ORDER BY pp.completed_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	out := make([]*model.UserPuzzle, 0, len(rows))
	for _, row := range rows {
		up := &model.UserPuzzle{Puzzle: row.Puzzle}
		if row.CompletedAt != nil {
			up.CompletedDate = completedDate(*row.CompletedAt)
		}
		out = append(out, up)
	}
	return out, nil
}

func completedDate(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02")
}

// ProfileRepository implementation

func (r *SQLiteRepository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = now()
	query := `
		INSERT INTO profiles (user_id, display_name, puzzles_completed, puzzles_created, total_points, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, profile.UserID, profile.DisplayName, profile.PuzzlesCompleted,
		profile.PuzzlesCreated, profile.TotalPoints, profile.UpdatedAt)
	return err
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	query := `
		SELECT user_id, display_name, puzzles_completed, puzzles_created, total_points, updated_at
		FROM profiles WHERE user_id = ?
	`
	if err := r.db.GetContext(ctx, profile, query, userID); err != nil {
		return nil, notFound(err)
	}
	return profile, nil
}

// IncrementStats adds delta to the user's counters, creating the profile if needed
func (r *SQLiteRepository) IncrementStats(ctx context.Context, userID string, delta model.ProfileStats) error {
	query := `
		INSERT INTO profiles (user_id, puzzles_completed, puzzles_created, total_points, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			puzzles_completed = puzzles_completed + excluded.puzzles_completed,
			puzzles_created = puzzles_created + excluded.puzzles_created,
			total_points = total_points + excluded.total_points,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, userID, delta.PuzzlesCompleted, delta.PuzzlesCreated, delta.TotalPoints, now())
	return err
}

func (r *SQLiteRepository) GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	var entries []*model.LeaderboardEntry
	query := `
		SELECT user_id, display_name, total_points, puzzles_completed
		FROM profiles
		ORDER BY total_points DESC, puzzles_completed DESC, user_id
		LIMIT ?
	`
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, err
	}
	for i, e := range entries {
		e.Rank = i + 1
	}
	return entries, nil
}
