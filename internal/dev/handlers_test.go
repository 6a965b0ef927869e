package dev

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jigsaw-online/internal/jigsaw"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type fixedCounter int

func (c fixedCounter) Count() int { return int(c) }

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE puzzles (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO puzzles (id) VALUES ('a'), ('b')`)
	require.NoError(t, err)
	return NewService(db, fixedCounter(3), jigsaw.Size{Width: 400, Height: 400})
}

func TestHealth(t *testing.T) {
	s := newTestService(t)
	rec := httptest.NewRecorder()
	s.Health(rec, httptest.NewRequest(http.MethodGet, "/api/dev/health", nil))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(2), body["puzzles"])
	assert.Equal(t, float64(3), body["openGames"])
}

func TestLayout(t *testing.T) {
	s := newTestService(t)

	rec := httptest.NewRecorder()
	s.Layout(rec, httptest.NewRequest(http.MethodGet, "/api/dev/layout?pieces=9&seed=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Grid   int                    `json:"grid"`
		Pieces []jigsaw.PieceTemplate `json:"pieces"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 3, body.Grid)
	require.Len(t, body.Pieces, 9)
	for _, p := range body.Pieces {
		assert.LessOrEqual(t, p.Initial.X+p.Size.Width, 400.0+1e-9)
		assert.LessOrEqual(t, p.Initial.Y+p.Size.Height, 400.0+1e-9)
	}

	for _, q := range []string{"pieces=-1", "pieces=x", "pieces=10001", "pieces=4611686018427387904", "width=0", "seed=abc"} {
		rec := httptest.NewRecorder()
		s.Layout(rec, httptest.NewRequest(http.MethodGet, "/api/dev/layout?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestScore(t *testing.T) {
	s := newTestService(t)
	rec := httptest.NewRecorder()
	s.Score(rec, httptest.NewRequest(http.MethodGet, "/api/dev/score?time=45&moves=16", nil))

	var body map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 923, body["score"])
}
