// Package analytics reports gameplay events to PostHog.
package analytics

import (
	"log"

	"github.com/posthog/posthog-go"
)

// EventPuzzleCompleted is captured once per finished game
const EventPuzzleCompleted = "puzzle_completed"

// Completion describes a finished game
type Completion struct {
	UserID         string
	PuzzleID       string
	ElapsedSeconds int
	MoveCount      int
	Score          int
}

// Tracker receives gameplay events
type Tracker interface {
	PuzzleCompleted(c Completion)
	Close() error
}

// PostHogTracker sends events through a batching PostHog client
type PostHogTracker struct {
	client posthog.Client
}

// NewPostHogTracker creates a tracker for apiKey. An empty endpoint uses the PostHog default.
func NewPostHogTracker(apiKey, endpoint string) (*PostHogTracker, error) {
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		return nil, err
	}
	return &PostHogTracker{client: client}, nil
}

// NewTracker returns a PostHog tracker when apiKey is set and a no-op tracker otherwise
func NewTracker(apiKey, endpoint string) Tracker {
	if apiKey == "" {
		return Noop{}
	}
	t, err := NewPostHogTracker(apiKey, endpoint)
	if err != nil {
		log.Printf("Analytics disabled: %v", err)
		return Noop{}
	}
	return t
}

func (t *PostHogTracker) PuzzleCompleted(c Completion) {
	err := t.client.Enqueue(posthog.Capture{
		DistinctId: c.UserID,
		Event:      EventPuzzleCompleted,
		Properties: completionProperties(c),
	})
	if err != nil {
		log.Printf("Error enqueueing analytics event: %v", err)
	}
}

// Close flushes pending events
func (t *PostHogTracker) Close() error {
	return t.client.Close()
}

func completionProperties(c Completion) posthog.Properties {
	return posthog.NewProperties().
		Set("puzzle_id", c.PuzzleID).
		Set("time", c.ElapsedSeconds).
		Set("moves", c.MoveCount).
		Set("score", c.Score)
}

// Noop discards every event
type Noop struct{}

func (Noop) PuzzleCompleted(Completion) {}
func (Noop) Close() error               { return nil }
