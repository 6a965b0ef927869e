package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"jigsaw-online/internal/model"
	"jigsaw-online/internal/repository"
)

const (
	featuredLimit    = 5
	recentLimit      = 8
	leaderboardLimit = 10
)

type createPuzzleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	Thumbnail   string `json:"thumbnail"`
}

func (s *server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	var req createPuzzleRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Thumbnail == "" {
		http.Error(w, "Name and image are required", http.StatusBadRequest)
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	difficulty := model.NormalizeDifficulty(req.Difficulty)

	userID := identity(r).UserID
	puzzle := &model.Puzzle{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Difficulty:  difficulty,
		Pieces:      model.PieceCountFor(difficulty),
		Thumbnail:   req.Thumbnail,
		CreatorID:   userID,
	}
	if err := s.repo.CreatePuzzle(r.Context(), puzzle); err != nil {
		log.Printf("Error creating puzzle: %v", err)
		http.Error(w, "Failed to create puzzle", http.StatusInternalServerError)
		return
	}
	if err := s.repo.IncrementStats(r.Context(), userID, model.ProfileStats{PuzzlesCreated: 1}); err != nil {
		log.Printf("Error updating stats: %v", err)
	}

	writeJSON(w, http.StatusCreated, puzzle)
}

func (s *server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzle, err := s.repo.GetPuzzleByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Puzzle not found", http.StatusNotFound)
			return
		}
		log.Printf("Error loading puzzle: %v", err)
		http.Error(w, "Failed to load puzzle", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, puzzle)
}

func (s *server) handleFeaturedPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.repo.GetFeaturedPuzzles(r.Context(), featuredLimit)
	s.writePuzzles(w, puzzles, err)
}

func (s *server) handleRecentPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.repo.GetRecentPuzzles(r.Context(), recentLimit)
	s.writePuzzles(w, puzzles, err)
}

// handleSearchPuzzles lists puzzles filtered by ?q=&category=&difficulty=
func (s *server) handleSearchPuzzles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category == "all" {
		category = ""
	}
	puzzles, err := s.repo.SearchPuzzles(r.Context(), model.PuzzleFilter{
		Query:      q.Get("q"),
		Category:   category,
		Difficulty: q.Get("difficulty"),
	})
	s.writePuzzles(w, puzzles, err)
}

func (s *server) handleCategoryPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.repo.SearchPuzzles(r.Context(), model.PuzzleFilter{
		Category:   mux.Vars(r)["category"],
		Difficulty: r.URL.Query().Get("difficulty"),
	})
	s.writePuzzles(w, puzzles, err)
}

func (s *server) writePuzzles(w http.ResponseWriter, puzzles []*model.Puzzle, err error) {
	if err != nil {
		log.Printf("Error loading puzzles: %v", err)
		http.Error(w, "Failed to load puzzles", http.StatusInternalServerError)
		return
	}
	if puzzles == nil {
		puzzles = []*model.Puzzle{}
	}
	writeJSON(w, http.StatusOK, puzzles)
}

func (s *server) handleCreatedPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.repo.GetPuzzlesByCreator(r.Context(), identity(r).UserID)
	s.writePuzzles(w, puzzles, err)
}

func (s *server) handleInProgressPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.repo.GetInProgressPuzzles(r.Context(), identity(r).UserID)
	writeUserPuzzles(w, puzzles, err)
}

func (s *server) handleCompletedPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.repo.GetCompletedPuzzles(r.Context(), identity(r).UserID)
	writeUserPuzzles(w, puzzles, err)
}

func writeUserPuzzles(w http.ResponseWriter, puzzles []*model.UserPuzzle, err error) {
	if err != nil {
		log.Printf("Error loading puzzles: %v", err)
		http.Error(w, "Failed to load puzzles", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, puzzles)
}

func (s *server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := leaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.repo.GetLeaderboard(r.Context(), limit)
	if err != nil {
		log.Printf("Error loading leaderboard: %v", err)
		http.Error(w, "Failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
