package jigsaw

import (
	"errors"
	"fmt"
)

// ErrEmptyPuzzle is returned by Load when the puzzle has no pieces to place
var ErrEmptyPuzzle = errors.New("puzzle has no pieces")

// ErrPuzzleNotFound is returned by Load when the store has no data for the puzzle
var ErrPuzzleNotFound = errors.New("puzzle not found")

// ErrUnknownPiece is returned when input targets a piece id the session does not own
var ErrUnknownPiece = errors.New("unknown piece")

// ErrNotLoaded is returned when input arrives before Load succeeded
var ErrNotLoaded = errors.New("session not loaded")

// ErrClosed is returned when input arrives after Close
var ErrClosed = errors.New("session closed")

// InputOutOfRangeError reports invalid layout parameters
type InputOutOfRangeError struct {
	Field string
	Value float64
}

func (e *InputOutOfRangeError) Error() string {
	return fmt.Sprintf("input out of range: %s = %v", e.Field, e.Value)
}

// LoadError is fatal to a session: no layout can be shown without the puzzle
type LoadError struct {
	PuzzleID string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load puzzle %s: %v", e.PuzzleID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed save. It is logged, never surfaced to the player.
type PersistenceError struct {
	Op       string
	PuzzleID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s for puzzle %s failed: %v", e.Op, e.PuzzleID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
