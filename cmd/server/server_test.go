package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jigsaw-online/internal/analytics"
	"jigsaw-online/internal/auth"
	"jigsaw-online/internal/game"
	"jigsaw-online/internal/jigsaw"
	"jigsaw-online/internal/model"
	"jigsaw-online/internal/repository"
	"jigsaw-online/internal/user"
)

func newTestServer(t *testing.T) (http.Handler, repository.Repository) {
	t.Helper()
	db, err := initDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLiteRepository(db)
	require.NoError(t, seedPuzzles(context.Background(), repo))

	cfg := Config{JWTSecret: "test-secret", TokenTTL: time.Hour, BoardWidth: 400, BoardHeight: 400}
	gameCfg := cfg.gameConfig()
	gameCfg.TickInterval = time.Hour
	gameCfg.CompletionDelay = 0
	gameCfg.Retry = jigsaw.RetryPolicy{}
	games := game.NewManager(repo, gameCfg, analytics.Noop{})
	t.Cleanup(games.CloseAll)

	return newServer(cfg, db, repo, user.NewService(repo), games).routes(), repo
}

func do(t *testing.T, h http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func signUp(t *testing.T, h http.Handler, email string) *http.Cookie {
	t.Helper()
	rec := do(t, h, "POST", "/api/auth/sign-up", auth.SignUpRequest{Email: email, Password: "password123"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no auth cookie set")
	return nil
}

func TestAuthFlow(t *testing.T) {
	h, _ := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, "GET", "/api/me", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		do(t, h, "GET", "/api/me", nil, &http.Cookie{Name: auth.CookieName, Value: "garbage"}).Code)

	cookie := signUp(t, h, "alice@example.com")

	rec := do(t, h, "GET", "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[authResponse](t, rec)
	assert.Equal(t, "alice@example.com", me.User.Email)
	require.NotNil(t, me.Profile)
	assert.Equal(t, "alice", me.Profile.DisplayName)

	rec = do(t, h, "POST", "/api/auth/sign-up", auth.SignUpRequest{Email: "alice@example.com", Password: "password123"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, "POST", "/api/auth/sign-up", auth.SignUpRequest{Email: "bob@example.com", Password: "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/auth/sign-in", auth.SignInRequest{Email: "alice@example.com", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, "POST", "/api/auth/sign-in", auth.SignInRequest{Email: "alice@example.com", Password: "password123"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestPuzzleCatalogue(t *testing.T) {
	h, _ := newTestServer(t)

	featured := decode[[]model.Puzzle](t, do(t, h, "GET", "/api/puzzles/featured", nil, nil))
	assert.Len(t, featured, 3)

	recent := decode[[]model.Puzzle](t, do(t, h, "GET", "/api/puzzles/recent", nil, nil))
	assert.Len(t, recent, 6)

	found := decode[[]model.Puzzle](t, do(t, h, "GET", "/api/puzzles?q=city", nil, nil))
	require.Len(t, found, 1)
	assert.Equal(t, "sample-city-skyline", found[0].ID)
	assert.Equal(t, 16, found[0].Pieces)

	nature := decode[[]model.Puzzle](t, do(t, h, "GET", "/api/categories/Nature/puzzles", nil, nil))
	assert.Len(t, nature, 4)

	easy := decode[[]model.Puzzle](t, do(t, h, "GET", "/api/puzzles?category=all&difficulty=easy", nil, nil))
	assert.Len(t, easy, 2)

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/puzzles/missing", nil, nil).Code)

	rec := do(t, h, "GET", "/api/puzzles/sample-winter-landscape", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, decode[model.Puzzle](t, rec).Pieces)
}

func TestCreatePuzzle(t *testing.T) {
	h, _ := newTestServer(t)
	cookie := signUp(t, h, "maker@example.com")

	body := createPuzzleRequest{Name: "My Cat", Difficulty: "Hard", Thumbnail: "cat.jpg"}
	assert.Equal(t, http.StatusUnauthorized, do(t, h, "POST", "/api/puzzles", body, nil).Code)

	rec := do(t, h, "POST", "/api/puzzles", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Puzzle](t, rec)
	assert.Equal(t, 64, created.Pieces)
	assert.Equal(t, model.DefaultCategory, created.Category)
	assert.Equal(t, "hard", created.Difficulty)

	rec = do(t, h, "POST", "/api/puzzles", createPuzzleRequest{Name: "No image"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mine := decode[[]model.Puzzle](t, do(t, h, "GET", "/api/me/puzzles/created", nil, cookie))
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	me := decode[authResponse](t, do(t, h, "GET", "/api/me", nil, cookie))
	assert.Equal(t, 1, me.Profile.PuzzlesCreated)
}

type testPiece struct {
	ID       int          `json:"id"`
	Position jigsaw.Point `json:"position"`
	Correct  jigsaw.Point `json:"correct"`
}

type testGame struct {
	ID   string `json:"id"`
	View struct {
		Pieces          []testPiece `json:"pieces"`
		CompletedPieces []int       `json:"completedPieces"`
		TotalPieces     int         `json:"totalPieces"`
		MoveCount       int         `json:"moves"`
		Complete        bool        `json:"complete"`
	} `json:"view"`
	Pulses []jigsaw.PulseKind `json:"pulses"`
}

func TestGameFlow(t *testing.T) {
	h, _ := newTestServer(t)
	cookie := signUp(t, h, "player@example.com")

	rec := do(t, h, "POST", "/api/games", openGameRequest{PuzzleID: "sample-city-skyline"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	g := decode[testGame](t, rec)
	require.Equal(t, 16, g.View.TotalPieces)
	base := "/api/games/" + g.ID

	var last releaseResponse
	for _, p := range g.View.Pieces {
		delta := deltaRequest{DX: p.Correct.X - p.Position.X, DY: p.Correct.Y - p.Position.Y}
		path := fmt.Sprintf("%s/pieces/%d", base, p.ID)

		rec = do(t, h, "POST", path+"/move", delta, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[map[string]bool](t, rec)["accepted"])

		rec = do(t, h, "POST", path+"/release", delta, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		last = decode[releaseResponse](t, rec)
		assert.True(t, last.Snapped)
	}
	assert.True(t, last.Complete)
	assert.Equal(t, 16, last.Moves)

	rec = do(t, h, "GET", base, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	g = decode[testGame](t, rec)
	assert.True(t, g.View.Complete)
	require.Len(t, g.Pulses, 17)
	assert.Equal(t, jigsaw.PulseSuccess, g.Pulses[16])

	assert.Equal(t, http.StatusNoContent, do(t, h, "DELETE", base, nil, cookie).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", base, nil, cookie).Code)

	completed := decode[[]model.UserPuzzle](t, do(t, h, "GET", "/api/me/puzzles/completed", nil, cookie))
	require.Len(t, completed, 1)
	assert.Equal(t, "sample-city-skyline", completed[0].ID)

	board := decode[[]model.LeaderboardEntry](t, do(t, h, "GET", "/api/leaderboard", nil, nil))
	require.NotEmpty(t, board)
	assert.Equal(t, jigsaw.Score(0, 16), board[0].Score)
	assert.Equal(t, 1, board[0].PuzzlesCompleted)
}

func TestGameInProgressAndView(t *testing.T) {
	h, _ := newTestServer(t)
	cookie := signUp(t, h, "viewer@example.com")

	g := decode[testGame](t, do(t, h, "POST", "/api/games", openGameRequest{PuzzleID: "sample-abstract-art"}, cookie))
	base := "/api/games/" + g.ID

	// dragging blocks panning; the drop lands well away from the slot
	p0 := g.View.Pieces[0]
	away := deltaRequest{DX: p0.Correct.X - p0.Position.X + 60, DY: p0.Correct.Y - p0.Position.Y + 60}
	rec := do(t, h, "POST", base+"/pieces/0/move", away, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	pan := decode[map[string]any](t, do(t, h, "POST", base+"/pan", deltaRequest{DX: 10, DY: 10}, cookie))
	assert.Equal(t, false, pan["applied"])

	rec = do(t, h, "POST", base+"/pieces/0/release", away, cookie)
	assert.False(t, decode[releaseResponse](t, rec).Snapped)
	pan = decode[map[string]any](t, do(t, h, "POST", base+"/pan", deltaRequest{DX: 10, DY: 10}, cookie))
	assert.Equal(t, true, pan["applied"])

	zoom := decode[map[string]float64](t, do(t, h, "POST", base+"/zoom", zoomRequest{Delta: 5}, cookie))
	assert.Equal(t, 2.0, zoom["scale"])
	zoom = decode[map[string]float64](t, do(t, h, "POST", base+"/zoom", zoomRequest{Delta: -5}, cookie))
	assert.Equal(t, 0.5, zoom["scale"])

	rec = do(t, h, "POST", base+"/reset", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decode[map[string]jigsaw.ViewTransform](t, rec)
	assert.Equal(t, jigsaw.ViewTransform{Scale: 1}, reset["transform"])

	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", base+"/pieces/99/move", deltaRequest{}, cookie).Code)

	// place one piece, leave, and find it on the in-progress shelf
	p := g.View.Pieces[3]
	delta := deltaRequest{DX: p.Correct.X - p.Position.X, DY: p.Correct.Y - p.Position.Y}
	do(t, h, "POST", base+"/pieces/3/move", delta, cookie)
	do(t, h, "POST", base+"/pieces/3/release", delta, cookie)
	require.Equal(t, http.StatusNoContent, do(t, h, "DELETE", base, nil, cookie).Code)

	shelf := decode[[]model.UserPuzzle](t, do(t, h, "GET", "/api/me/puzzles/in-progress", nil, cookie))
	require.Len(t, shelf, 1)
	assert.InDelta(t, 100.0/16, shelf[0].Progress, 1e-9)

	// reopening resumes the placed piece
	g = decode[testGame](t, do(t, h, "POST", "/api/games", openGameRequest{PuzzleID: "sample-abstract-art"}, cookie))
	assert.Equal(t, []int{3}, g.View.CompletedPieces)
	assert.Equal(t, 1, g.View.MoveCount)
}

func TestGameErrors(t *testing.T) {
	h, _ := newTestServer(t)
	alice := signUp(t, h, "alice@example.com")
	bob := signUp(t, h, "bob@example.com")

	assert.Equal(t, http.StatusUnauthorized,
		do(t, h, "POST", "/api/games", openGameRequest{PuzzleID: "sample-city-skyline"}, nil).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, h, "POST", "/api/games", openGameRequest{PuzzleID: "missing"}, alice).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, h, "POST", "/api/games", openGameRequest{}, alice).Code)

	g := decode[testGame](t, do(t, h, "POST", "/api/games", openGameRequest{PuzzleID: "sample-city-skyline"}, alice))
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/games/"+g.ID, nil, bob).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "DELETE", "/api/games/"+g.ID, nil, bob).Code)
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/api/games/"+g.ID, nil, alice).Code)
}

func TestDevRoutes(t *testing.T) {
	h, _ := newTestServer(t)

	health := decode[map[string]any](t, do(t, h, "GET", "/api/dev/health", nil, nil))
	assert.Equal(t, float64(6), health["puzzles"])

	score := decode[map[string]int](t, do(t, h, "GET", "/api/dev/score?time=45&moves=16", nil, nil))
	assert.Equal(t, 923, score["score"])
}

func TestSamplePuzzles(t *testing.T) {
	puzzles := SamplePuzzles()
	require.Len(t, puzzles, 6)
	for _, p := range puzzles {
		assert.True(t, model.ValidDifficulty(p.Difficulty), p.ID)
		assert.Equal(t, model.PieceCountFor(p.Difficulty), p.Pieces, p.ID)
		assert.NotEmpty(t, p.Thumbnail, p.ID)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db, err := initDatabase(":memory:")
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, seedAll(ctx, repo))
	require.NoError(t, seedAll(ctx, repo))

	n, err := repo.CountPuzzles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = repo.GetUserByEmail(ctx, testUserEmail)
	assert.NoError(t, err)
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["seed"])
}
