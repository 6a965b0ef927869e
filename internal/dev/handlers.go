package dev

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"

	"jigsaw-online/internal/jigsaw"

	"github.com/jmoiron/sqlx"
)

// GameCounter reports how many games are open
type GameCounter interface {
	Count() int
}

type Service struct {
	DB    *sqlx.DB
	Games GameCounter
	Board jigsaw.Size
}

func NewService(db *sqlx.DB, games GameCounter, board jigsaw.Size) *Service {
	return &Service{DB: db, Games: games, Board: board}
}

func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	var n int
	_ = s.DB.GetContext(r.Context(), &n, `SELECT COUNT(*) FROM puzzles`)
	open := 0
	if s.Games != nil {
		open = s.Games.Count()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "puzzles": n, "openGames": open})
}

// Layout previews the piece layout for ?pieces=&width=&height=&seed=
func (s *Service) Layout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pieces, err := intParam(q.Get("pieces"), 16)
	if err != nil {
		http.Error(w, "bad pieces", 400)
		return
	}
	width, err := floatParam(q.Get("width"), s.Board.Width)
	if err != nil {
		http.Error(w, "bad width", 400)
		return
	}
	height, err := floatParam(q.Get("height"), s.Board.Height)
	if err != nil {
		http.Error(w, "bad height", 400)
		return
	}

	var rng *rand.Rand
	if seed := q.Get("seed"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			http.Error(w, "bad seed", 400)
			return
		}
		rng = rand.New(rand.NewSource(n))
	}

	layout, err := jigsaw.GenerateLayout(pieces, width, height, rng)
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"grid":   jigsaw.GridSize(pieces),
		"pieces": layout,
	})
}

// Score previews the score for ?time=&moves=
func (s *Service) Score(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	secs, err := intParam(q.Get("time"), 0)
	if err != nil {
		http.Error(w, "bad time", 400)
		return
	}
	moves, err := intParam(q.Get("moves"), 0)
	if err != nil {
		http.Error(w, "bad moves", 400)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"time":  secs,
		"moves": moves,
		"score": jigsaw.Score(secs, moves),
	})
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func floatParam(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
