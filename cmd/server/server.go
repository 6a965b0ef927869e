package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"jigsaw-online/internal/auth"
	"jigsaw-online/internal/dev"
	"jigsaw-online/internal/game"
	"jigsaw-online/internal/jigsaw"
	"jigsaw-online/internal/repository"
	"jigsaw-online/internal/user"
)

type contextKey string

const identityKey contextKey = "identity"

type server struct {
	cfg    Config
	repo   repository.Repository
	users  *user.Service
	issuer *auth.TokenIssuer
	games  *game.Manager
	dev    *dev.Service
}

func newServer(cfg Config, db *sqlx.DB, repo repository.Repository, users *user.Service, games *game.Manager) *server {
	return &server{
		cfg:    cfg,
		repo:   repo,
		users:  users,
		issuer: auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL),
		games:  games,
		dev:    dev.NewService(db, games, jigsaw.Size{Width: cfg.BoardWidth, Height: cfg.BoardHeight}),
	}
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// Health check endpoint
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Dev endpoints
	api.HandleFunc("/dev/health", s.dev.Health).Methods("GET")
	api.HandleFunc("/dev/layout", s.dev.Layout).Methods("GET")
	api.HandleFunc("/dev/score", s.dev.Score).Methods("GET")

	// Auth
	api.HandleFunc("/auth/sign-up", s.handleSignUp).Methods("POST")
	api.HandleFunc("/auth/sign-in", s.handleSignIn).Methods("POST")
	api.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	api.Handle("/me", s.AuthMiddleware(http.HandlerFunc(s.handleGetMe))).Methods("GET")

	// Puzzle catalogue
	api.HandleFunc("/puzzles", s.handleSearchPuzzles).Methods("GET")
	api.Handle("/puzzles", s.AuthMiddleware(http.HandlerFunc(s.handleCreatePuzzle))).Methods("POST")
	api.HandleFunc("/puzzles/featured", s.handleFeaturedPuzzles).Methods("GET")
	api.HandleFunc("/puzzles/recent", s.handleRecentPuzzles).Methods("GET")
	api.HandleFunc("/puzzles/{id}", s.handleGetPuzzle).Methods("GET")
	api.HandleFunc("/categories/{category}/puzzles", s.handleCategoryPuzzles).Methods("GET")
	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods("GET")

	// Player shelves
	api.Handle("/me/puzzles/created", s.AuthMiddleware(http.HandlerFunc(s.handleCreatedPuzzles))).Methods("GET")
	api.Handle("/me/puzzles/in-progress", s.AuthMiddleware(http.HandlerFunc(s.handleInProgressPuzzles))).Methods("GET")
	api.Handle("/me/puzzles/completed", s.AuthMiddleware(http.HandlerFunc(s.handleCompletedPuzzles))).Methods("GET")

	// Games
	api.Handle("/games", s.AuthMiddleware(http.HandlerFunc(s.handleOpenGame))).Methods("POST")
	games := api.PathPrefix("/games").Subrouter()
	games.Use(s.AuthMiddleware)
	games.HandleFunc("/{id}", s.handleGetGame).Methods("GET")
	games.HandleFunc("/{id}", s.handleCloseGame).Methods("DELETE")
	games.HandleFunc("/{id}/pieces/{pieceId:[0-9]+}/move", s.handleMovePiece).Methods("POST")
	games.HandleFunc("/{id}/pieces/{pieceId:[0-9]+}/release", s.handleReleasePiece).Methods("POST")
	games.HandleFunc("/{id}/zoom", s.handleZoom).Methods("POST")
	games.HandleFunc("/{id}/pan", s.handlePan).Methods("POST")
	games.HandleFunc("/{id}/reset", s.handleResetView).Methods("POST")

	return r
}

// AuthMiddleware checks for a valid JWT cookie and attaches the identity to the request
func (s *server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := s.issuer.ValidateJWT(cookie.Value)
		if err != nil {
			log.Printf("AuthMiddleware: Invalid JWT token: %v", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, auth.Identity{UserID: claims.UserID, Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identity returns the user attached by AuthMiddleware
func identity(r *http.Request) auth.Identity {
	id, _ := r.Context().Value(identityKey).(auth.Identity)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
