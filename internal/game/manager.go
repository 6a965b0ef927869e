package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"jigsaw-online/internal/analytics"
	"jigsaw-online/internal/jigsaw"
	"jigsaw-online/internal/repository"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("game session not found")

// Game is an open puzzle session owned by one player
type Game struct {
	ID       string
	UserID   string
	PuzzleID string
	Session  *jigsaw.Session

	pulses     *PulseQueue
	lastActive time.Time
}

// Pulses drains the feedback pulses queued since the last call
func (g *Game) Pulses() []jigsaw.PulseKind {
	return g.pulses.Drain()
}

// Manager keeps the open games of all players
type Manager struct {
	repo    repository.Repository
	cfg     jigsaw.Config
	tracker analytics.Tracker
	now     func() time.Time

	mu    sync.Mutex
	games map[string]*Game
}

func NewManager(repo repository.Repository, cfg jigsaw.Config, tracker analytics.Tracker) *Manager {
	if tracker == nil {
		tracker = analytics.Noop{}
	}
	return &Manager{
		repo:    repo,
		cfg:     cfg,
		tracker: tracker,
		now:     time.Now,
		games:   make(map[string]*Game),
	}
}

// Open loads a puzzle for userID and starts its timer
func (m *Manager) Open(ctx context.Context, userID, puzzleID string) (*Game, error) {
	g := &Game{
		ID:       uuid.New().String(),
		UserID:   userID,
		PuzzleID: puzzleID,
		pulses:   &PulseQueue{},
	}
	g.Session = jigsaw.NewSession(m.cfg, NewPlayerStore(m.repo, userID), g.pulses,
		jigsaw.WithCompletionHandler(func(r jigsaw.Result) {
			log.Printf("Puzzle %s completed by %s in %ds with %d moves (score %d)",
				r.PuzzleID, userID, r.ElapsedSeconds, r.MoveCount, r.Score)
			m.tracker.PuzzleCompleted(analytics.Completion{
				UserID:         userID,
				PuzzleID:       r.PuzzleID,
				ElapsedSeconds: r.ElapsedSeconds,
				MoveCount:      r.MoveCount,
				Score:          r.Score,
			})
		}))

	if err := g.Session.Load(ctx, puzzleID); err != nil {
		g.Session.Close()
		return nil, err
	}
	// the timer outlives the request; Close stops it
	g.Session.Start(context.Background())

	m.mu.Lock()
	g.lastActive = m.now()
	m.games[g.ID] = g
	m.mu.Unlock()
	return g, nil
}

// Get returns the game id if userID owns it, and marks it active
func (m *Manager) Get(userID, id string) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok || g.UserID != userID {
		return nil, ErrSessionNotFound
	}
	g.lastActive = m.now()
	return g, nil
}

// Close tears down the game id, saving unfinished progress
func (m *Manager) Close(userID, id string) error {
	m.mu.Lock()
	g, ok := m.games[id]
	if !ok || g.UserID != userID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.games, id)
	m.mu.Unlock()

	g.Session.Close()
	return nil
}

// SweepIdle closes games without input for longer than maxIdle and returns how many it closed
func (m *Manager) SweepIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Game
	for id, g := range m.games {
		if g.lastActive.Before(cutoff) {
			idle = append(idle, g)
			delete(m.games, id)
		}
	}
	m.mu.Unlock()

	for _, g := range idle {
		g.Session.Close()
	}
	return len(idle)
}

// CloseAll closes every open game
func (m *Manager) CloseAll() {
	m.mu.Lock()
	games := m.games
	m.games = make(map[string]*Game)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, g := range games {
		wg.Add(1)
		go func(g *Game) {
			defer wg.Done()
			g.Session.Close()
		}(g)
	}
	wg.Wait()
}

// Count returns the number of open games
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}
