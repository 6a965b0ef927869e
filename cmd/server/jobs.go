package main

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"jigsaw-online/internal/game"
	"jigsaw-online/internal/repository"
)

// startJobs schedules the idle game sweep and the hourly leaderboard log
func startJobs(repo repository.Repository, games *game.Manager, idle time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.Local))

	_, err := c.AddFunc("@every 1m", func() {
		if n := games.SweepIdle(idle); n > 0 {
			log.Printf("Closed %d idle games", n)
		}
	})
	if err != nil {
		log.Printf("Failed to add cron job: %v", err)
		return nil, err
	}

	_, err = c.AddFunc("0 * * * *", func() {
		logLeaderboard(repo)
	})
	if err != nil {
		log.Printf("Failed to add cron job: %v", err)
		return nil, err
	}

	c.Start()
	return c, nil
}

func logLeaderboard(repo repository.Repository) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := repo.GetLeaderboard(ctx, 3)
	if err != nil {
		log.Printf("Error loading leaderboard: %v", err)
		return
	}
	for _, e := range entries {
		log.Printf("Leaderboard #%d: %s (%d points, %d puzzles)", e.Rank, e.DisplayName, e.Score, e.PuzzlesCompleted)
	}
}
