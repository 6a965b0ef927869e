package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"jigsaw-online/internal/auth"
	"jigsaw-online/internal/repository"
	"jigsaw-online/internal/user"
)

const (
	testUserEmail    = "test@example.com"
	testUserPassword = "password123"
)

func seedAll(ctx context.Context, repo repository.Repository) error {
	if err := seedPuzzles(ctx, repo); err != nil {
		return fmt.Errorf("failed to seed puzzles: %w", err)
	}
	if err := seedTestUser(ctx, repo); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}
	return nil
}

// seedPuzzles inserts the sample catalogue into an empty database
func seedPuzzles(ctx context.Context, repo repository.Repository) error {
	log.Println("Seeding puzzles...")

	// Check if puzzles already exist (idempotent)
	count, err := repo.CountPuzzles(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Found %d existing puzzles, skipping seed", count)
		return nil
	}

	puzzles := SamplePuzzles()
	for i := range puzzles {
		p := puzzles[i]
		if err := repo.CreatePuzzle(ctx, &p); err != nil {
			return err
		}
		log.Printf("Inserted puzzle: %s (%s, %d pieces)", p.Name, p.Difficulty, p.Pieces)
	}

	log.Printf("Successfully seeded %d puzzles", len(puzzles))
	return nil
}

// seedTestUser creates a test user for development
func seedTestUser(ctx context.Context, repo repository.Repository) error {
	log.Println("Seeding test user...")

	_, err := repo.GetUserByEmail(ctx, testUserEmail)
	if err == nil {
		log.Println("Test user already exists, skipping")
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	testUser, err := user.NewService(repo).CreateUser(ctx, auth.SignUpRequest{
		Email:       testUserEmail,
		Password:    testUserPassword,
		DisplayName: "Test Puzzler",
	})
	if err != nil {
		return err
	}

	log.Printf("Created test user: %s (ID: %s)", testUser.Email, testUser.ID)
	return nil
}
