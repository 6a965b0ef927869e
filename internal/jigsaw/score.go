package jigsaw

const (
	basePoints     = 1000
	minPoints      = 100
	maxTimePenalty = 300 // seconds
	maxMovePenalty = 200 // moves
	pointsPerMove  = 2
)

// Score maps a finished puzzle's elapsed seconds and move count to points in [100, 1000].
// Negative inputs count as zero.
func Score(timeSeconds, moveCount int) int {
	t := min(max(timeSeconds, 0), maxTimePenalty)
	m := min(max(moveCount, 0), maxMovePenalty)
	return max(basePoints-t-m*pointsPerMove, minPoints)
}
