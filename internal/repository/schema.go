package repository

import (
	"github.com/jmoiron/sqlx"
)

// Migrate creates the tables the server needs if they don't exist
func Migrate(db *sqlx.DB) error {
	statements := []string{
		// Create users table if it doesn't exist
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		// Create profiles table if it doesn't exist
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			puzzles_completed INTEGER NOT NULL DEFAULT 0,
			puzzles_created INTEGER NOT NULL DEFAULT 0,
			total_points INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// Create puzzles table if it doesn't exist
		`CREATE TABLE IF NOT EXISTS puzzles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'Other',
			difficulty TEXT NOT NULL,
			pieces INTEGER NOT NULL,
			thumbnail TEXT NOT NULL DEFAULT '',
			featured INTEGER NOT NULL DEFAULT 0,
			creator_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_puzzles_created_at ON puzzles(created_at)`,
		// Create puzzle_progress table if it doesn't exist
		`CREATE TABLE IF NOT EXISTS puzzle_progress (
			user_id TEXT NOT NULL,
			puzzle_id TEXT NOT NULL,
			completed_pieces TEXT NOT NULL DEFAULT '[]',
			time INTEGER NOT NULL DEFAULT 0,
			moves INTEGER NOT NULL DEFAULT 0,
			completed_at TEXT,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, puzzle_id),
			FOREIGN KEY (puzzle_id) REFERENCES puzzles(id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
