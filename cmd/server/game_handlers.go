package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"jigsaw-online/internal/game"
	"jigsaw-online/internal/jigsaw"
	"jigsaw-online/internal/repository"
)

type gameResponse struct {
	ID     string             `json:"id"`
	View   jigsaw.View        `json:"view"`
	Pulses []jigsaw.PulseKind `json:"pulses"`
}

type openGameRequest struct {
	PuzzleID string `json:"puzzleId"`
}

type deltaRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type zoomRequest struct {
	Delta float64 `json:"delta"`
}

type releaseResponse struct {
	jigsaw.ReleaseResult
	Moves    int  `json:"moves"`
	Complete bool `json:"complete"`
}

func (s *server) handleOpenGame(w http.ResponseWriter, r *http.Request) {
	var req openGameRequest
	if err := decodeJSON(r, &req); err != nil || req.PuzzleID == "" {
		http.Error(w, "puzzleId is required", http.StatusBadRequest)
		return
	}

	g, err := s.games.Open(r.Context(), identity(r).UserID, req.PuzzleID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			http.Error(w, "Puzzle not found", http.StatusNotFound)
		case errors.Is(err, jigsaw.ErrEmptyPuzzle):
			http.Error(w, "Puzzle has no pieces", http.StatusUnprocessableEntity)
		default:
			log.Printf("Error loading puzzle: %v", err)
			http.Error(w, "Failed to load puzzle", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusCreated, gameResponse{ID: g.ID, View: g.Session.Snapshot(), Pulses: g.Pulses()})
}

// game returns the caller's game named in the path, or writes 404
func (s *server) game(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	g, err := s.games.Get(identity(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return nil, false
	}
	return g, true
}

func (s *server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{ID: g.ID, View: g.Session.Snapshot(), Pulses: g.Pulses()})
}

func (s *server) handleCloseGame(w http.ResponseWriter, r *http.Request) {
	if err := s.games.Close(identity(r).UserID, mux.Vars(r)["id"]); err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleMovePiece(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	pieceID, req, ok := pieceRequest(w, r)
	if !ok {
		return
	}

	accepted, err := g.Session.Move(pieceID, req.DX, req.DY)
	if err != nil {
		writePieceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
}

func (s *server) handleReleasePiece(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	pieceID, req, ok := pieceRequest(w, r)
	if !ok {
		return
	}

	res, err := g.Session.Release(pieceID, req.DX, req.DY)
	if err != nil {
		writePieceError(w, err)
		return
	}
	p := g.Session.Progress()
	writeJSON(w, http.StatusOK, releaseResponse{
		ReleaseResult: res,
		Moves:         p.MoveCount,
		Complete:      g.Session.IsComplete(),
	})
}

func (s *server) handleZoom(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	var req zoomRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"scale": g.Session.SetScale(req.Delta)})
}

func (s *server) handlePan(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	var req deltaRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	applied := g.Session.Pan(req.DX, req.DY)
	writeJSON(w, http.StatusOK, map[string]any{
		"applied":   applied,
		"transform": g.Session.Snapshot().Transform,
	})
}

func (s *server) handleResetView(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	g.Session.Reset()
	writeJSON(w, http.StatusOK, map[string]any{"transform": g.Session.Snapshot().Transform})
}

func pieceRequest(w http.ResponseWriter, r *http.Request) (int, deltaRequest, bool) {
	var req deltaRequest
	pieceID, err := strconv.Atoi(mux.Vars(r)["pieceId"])
	if err != nil {
		http.Error(w, "Invalid piece", http.StatusBadRequest)
		return 0, req, false
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return 0, req, false
	}
	return pieceID, req, true
}

func writePieceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jigsaw.ErrUnknownPiece):
		http.Error(w, "Piece not found", http.StatusNotFound)
	case errors.Is(err, jigsaw.ErrClosed):
		http.Error(w, "Game closed", http.StatusGone)
	default:
		http.Error(w, err.Error(), http.StatusConflict)
	}
}
