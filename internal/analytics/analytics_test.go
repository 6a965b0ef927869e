package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTracker_NoKeyIsNoop(t *testing.T) {
	tr := NewTracker("", "")
	assert.IsType(t, Noop{}, tr)
	tr.PuzzleCompleted(Completion{UserID: "u1"})
	assert.NoError(t, tr.Close())
}

func TestCompletionProperties(t *testing.T) {
	props := completionProperties(Completion{
		UserID:         "u1",
		PuzzleID:       "p1",
		ElapsedSeconds: 45,
		MoveCount:      16,
		Score:          923,
	})
	assert.Equal(t, "p1", props["puzzle_id"])
	assert.Equal(t, 45, props["time"])
	assert.Equal(t, 16, props["moves"])
	assert.Equal(t, 923, props["score"])
}
