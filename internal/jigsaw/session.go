package jigsaw

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Config holds the tunables of a puzzle session
type Config struct {
	BoardWidth      float64
	BoardHeight     float64
	SnapThreshold   float64
	TickInterval    time.Duration
	SaveEvery       int // ticks between periodic progress saves
	SaveTimeout     time.Duration
	CompletionDelay time.Duration
	MinScale        float64
	MaxScale        float64
	Retry           RetryPolicy
}

// DefaultConfig returns the settings used by the game screen
func DefaultConfig() Config {
	return Config{
		BoardWidth:      1200,
		BoardHeight:     1200,
		SnapThreshold:   DefaultSnapThreshold,
		TickInterval:    time.Second,
		SaveEvery:       30,
		SaveTimeout:     10 * time.Second,
		CompletionDelay: time.Second,
		MinScale:        0.5,
		MaxScale:        2.0,
		Retry:           DefaultRetryPolicy(),
	}
}

// ViewTransform is the pan and zoom of the board. It is never persisted.
type ViewTransform struct {
	Offset Point   `json:"offset"`
	Scale  float64 `json:"scale"`
}

func identityTransform() ViewTransform {
	return ViewTransform{Scale: 1}
}

// Option configures a Session
type Option func(*Session)

// WithRand sets the source used for initial piece positions
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithCompletionHandler registers the callback fired once the puzzle is solved
func WithCompletionHandler(fn func(Result)) Option {
	return func(s *Session) { s.onComplete = fn }
}

// Session owns the pieces of one opened puzzle, its timer and its counters.
// All input, timer ticks and piece events are applied one at a time.
type Session struct {
	cfg        Config
	store      Store
	feedback   Feedback
	rng        *rand.Rand
	onComplete func(Result)

	mu              sync.Mutex
	puzzleID        string
	imageRef        string
	pieces          []*Piece
	completedIDs    map[int]struct{}
	elapsed         int
	moves           int
	view            ViewTransform
	dragging        int
	loaded          bool
	complete        bool
	closed          bool
	emitted         bool
	result          *Result
	stopTimer       context.CancelFunc
	completionTimer *time.Timer

	saveMu sync.Mutex
	wg     sync.WaitGroup
}

// NewSession creates an empty session. Call Load before anything else.
func NewSession(cfg Config, store Store, feedback Feedback, opts ...Option) *Session {
	s := &Session{
		cfg:          cfg,
		store:        store,
		feedback:     feedback,
		completedIDs: make(map[int]struct{}),
		view:         identityTransform(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pieceEvents forwards piece events into the session. Pieces only emit while the
// session lock is held, so the handlers never lock.
type pieceEvents struct{ s *Session }

func (e pieceEvents) DragStarted(int) { e.s.dragging++ }
func (e pieceEvents) DragEnded(int)   { e.s.dragging = max(e.s.dragging-1, 0) }
func (e pieceEvents) Snapped(id int)  { e.s.onPieceSnapped(id) }

// Load fetches the puzzle, builds its layout and restores saved progress.
// Any failure is returned as a *LoadError and the session must be abandoned.
func (s *Session) Load(ctx context.Context, puzzleID string) error {
	var data *PuzzleData
	err := s.cfg.Retry.Do(ctx, "fetch puzzle "+puzzleID, func(ctx context.Context) error {
		d, err := s.store.FetchPuzzle(ctx, puzzleID)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		return &LoadError{PuzzleID: puzzleID, Err: err}
	}
	if data == nil {
		return &LoadError{PuzzleID: puzzleID, Err: ErrPuzzleNotFound}
	}
	if data.PieceCount == 0 {
		return &LoadError{PuzzleID: puzzleID, Err: ErrEmptyPuzzle}
	}

	layout, err := GenerateLayout(data.PieceCount, s.cfg.BoardWidth, s.cfg.BoardHeight, s.rng)
	if err != nil {
		return &LoadError{PuzzleID: puzzleID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &LoadError{PuzzleID: puzzleID, Err: ErrClosed}
	}

	pieces := make([]*Piece, 0, len(layout))
	for _, t := range layout {
		p, err := NewPiece(t, s.cfg.SnapThreshold, pieceEvents{s})
		if err != nil {
			return &LoadError{PuzzleID: puzzleID, Err: err}
		}
		pieces = append(pieces, p)
	}

	s.puzzleID = puzzleID
	s.imageRef = data.ImageRef
	s.pieces = pieces

	if prior := data.Prior; prior != nil {
		for _, id := range prior.CompletedPieceIDs {
			if id < 0 || id >= len(pieces) {
				log.Printf("Ignoring saved piece %d for puzzle %s: out of range", id, puzzleID)
				continue
			}
			pieces[id].restore()
			s.completedIDs[id] = struct{}{}
		}
		s.elapsed = max(prior.ElapsedSeconds, 0)
		s.moves = max(prior.MoveCount, 0)
	}
	s.loaded = true

	// saved progress may already cover every piece if the completion write was lost
	s.checkCompletionLocked()
	return nil
}

// Start runs the one second timer until the puzzle completes, the session closes or ctx ends
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if !s.loaded || s.complete || s.closed || s.stopTimer != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.stopTimer = cancel
	interval := s.cfg.TickInterval
	s.mu.Unlock()

	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

// Tick advances the elapsed time by one second and periodically saves progress
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded || s.complete || s.closed {
		return
	}
	s.elapsed++
	if s.cfg.SaveEvery > 0 && s.elapsed%s.cfg.SaveEvery == 0 {
		p := s.progressLocked()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.saveProgress(p, false)
		}()
	}
}

// saveProgress writes p to the store. A periodic save is dropped when another save
// is still running; a final save waits for it instead.
func (s *Session) saveProgress(p Progress, wait bool) {
	if wait {
		s.saveMu.Lock()
	} else if !s.saveMu.TryLock() {
		log.Printf("Skipping progress save for puzzle %s: previous save still running", s.puzzleID)
		return
	}
	defer s.saveMu.Unlock()

	ctx, cancel := s.persistContext()
	defer cancel()

	err := s.cfg.Retry.Do(ctx, "save progress", func(ctx context.Context) error {
		return s.store.SaveProgress(ctx, s.puzzleID, p)
	})
	if err != nil {
		log.Printf("Error saving progress: %v", &PersistenceError{Op: "save progress", PuzzleID: s.puzzleID, Err: err})
	}
}

func (s *Session) persistContext() (context.Context, context.CancelFunc) {
	if s.cfg.SaveTimeout > 0 {
		return context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
	}
	return context.WithCancel(context.Background())
}

// Move applies a drag sample to a piece. It reports false when the piece ignored it.
func (s *Session) Move(pieceID int, dx, dy float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pieceLocked(pieceID)
	if err != nil {
		return false, err
	}
	return p.Move(dx, dy), nil
}

// Release ends a drag at translation (dx, dy) and resolves snap or return.
func (s *Session) Release(pieceID int, dx, dy float64) (ReleaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pieceLocked(pieceID)
	if err != nil {
		return ReleaseResult{}, err
	}
	res, _ := p.Release(dx, dy, s.view.Scale)
	return res, nil
}

func (s *Session) pieceLocked(pieceID int) (*Piece, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if pieceID < 0 || pieceID >= len(s.pieces) {
		return nil, ErrUnknownPiece
	}
	return s.pieces[pieceID], nil
}

func (s *Session) onPieceSnapped(pieceID int) {
	if _, ok := s.completedIDs[pieceID]; ok {
		return
	}
	s.completedIDs[pieceID] = struct{}{}
	s.moves++
	s.pulse(PulseLight)
	s.checkCompletionLocked()
}

func (s *Session) pulse(kind PulseKind) {
	if s.feedback == nil {
		return
	}
	_ = s.feedback.Pulse(kind)
}

// CheckCompletion runs the completion sequence if every piece is placed.
// It reports true only for the call that completed the session.
func (s *Session) CheckCompletion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkCompletionLocked()
}

func (s *Session) checkCompletionLocked() bool {
	if s.complete || !s.loaded || len(s.pieces) == 0 || len(s.completedIDs) != len(s.pieces) {
		return false
	}
	s.complete = true
	if s.stopTimer != nil {
		s.stopTimer()
	}
	s.pulse(PulseSuccess)

	res := Result{
		PuzzleID:       s.puzzleID,
		ElapsedSeconds: s.elapsed,
		MoveCount:      s.moves,
		Score:          Score(s.elapsed, s.moves),
	}
	s.result = &res

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.saveCompletion(res)
	}()

	s.completionTimer = time.AfterFunc(s.cfg.CompletionDelay, func() { s.emitCompletion(res) })
	return true
}

// saveCompletion writes the completion record, then bumps the player's stats.
// Failures are logged; the completion event fires regardless.
func (s *Session) saveCompletion(res Result) {
	ctx, cancel := s.persistContext()
	defer cancel()

	c := Completion{ElapsedSeconds: res.ElapsedSeconds, MoveCount: res.MoveCount, Score: res.Score}
	err := s.cfg.Retry.Do(ctx, "save completion", func(ctx context.Context) error {
		return s.store.SaveCompletion(ctx, res.PuzzleID, c)
	})
	if err != nil {
		log.Printf("Error completing puzzle: %v", &PersistenceError{Op: "save completion", PuzzleID: res.PuzzleID, Err: err})
		return
	}

	err = s.cfg.Retry.Do(ctx, "update stats", func(ctx context.Context) error {
		return s.store.IncrementStats(ctx, 1, res.Score)
	})
	if err != nil {
		log.Printf("Error updating stats: %v", &PersistenceError{Op: "update stats", PuzzleID: res.PuzzleID, Err: err})
	}
}

func (s *Session) emitCompletion(res Result) {
	s.mu.Lock()
	if s.closed || s.emitted {
		s.mu.Unlock()
		return
	}
	s.emitted = true
	fn := s.onComplete
	s.mu.Unlock()

	if fn != nil {
		fn(res)
	}
}

// Close tears the session down: the timer and any pending completion event are
// cancelled and unfinished progress gets one last save. Close blocks until
// background writes have finished.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.stopTimer != nil {
		s.stopTimer()
	}
	if s.completionTimer != nil {
		s.completionTimer.Stop()
	}
	final := s.loaded && !s.complete
	p := s.progressLocked()
	s.mu.Unlock()

	if final {
		s.saveProgress(p, true)
	}
	s.wg.Wait()
}

// Reset restores the board to identity pan and zoom. Drags that were never
// released are cancelled so panning works again.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pieces {
		p.cancelDrag()
	}
	s.dragging = 0
	s.view = identityTransform()
}

// SetScale changes the zoom by delta, clamped to the configured range, and returns the new scale
func (s *Session) SetScale(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Scale = min(max(s.view.Scale+delta, s.cfg.MinScale), s.cfg.MaxScale)
	return s.view.Scale
}

// Pan moves the board. It is ignored while a piece is being dragged.
func (s *Session) Pan(dx, dy float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragging > 0 {
		return false
	}
	s.view.Offset = s.view.Offset.Add(dx, dy)
	return true
}

func (s *Session) progressLocked() Progress {
	ids := make([]int, 0, len(s.completedIDs))
	for id := range s.completedIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return Progress{CompletedPieceIDs: ids, ElapsedSeconds: s.elapsed, MoveCount: s.moves}
}

// Progress returns the resumable state
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// PuzzleID returns the loaded puzzle's id
func (s *Session) PuzzleID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puzzleID
}

// IsComplete reports whether every piece has been placed
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Result returns the final result once the session is complete
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// PieceView is a read-only copy of a piece for rendering
type PieceView struct {
	ID       int        `json:"id"`
	State    PieceState `json:"state"`
	Position Point      `json:"position"`
	Correct  Point      `json:"correct"`
	Size     Size       `json:"size"`
}

// View is a read-only copy of the whole session
type View struct {
	PuzzleID        string        `json:"puzzleId"`
	ImageRef        string        `json:"imageRef"`
	Pieces          []PieceView   `json:"pieces"`
	CompletedPieces []int         `json:"completedPieces"`
	TotalPieces     int           `json:"totalPieces"`
	ElapsedSeconds  int           `json:"time"`
	MoveCount       int           `json:"moves"`
	Transform       ViewTransform `json:"transform"`
	Dragging        bool          `json:"dragging"`
	Complete        bool          `json:"complete"`
	Result          *Result       `json:"result,omitempty"`
}

// Snapshot copies the session state
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.progressLocked()
	v := View{
		PuzzleID:        s.puzzleID,
		ImageRef:        s.imageRef,
		Pieces:          make([]PieceView, 0, len(s.pieces)),
		CompletedPieces: p.CompletedPieceIDs,
		TotalPieces:     len(s.pieces),
		ElapsedSeconds:  s.elapsed,
		MoveCount:       s.moves,
		Transform:       s.view,
		Dragging:        s.dragging > 0,
		Complete:        s.complete,
	}
	for _, pc := range s.pieces {
		v.Pieces = append(v.Pieces, PieceView{
			ID:       pc.id,
			State:    pc.state,
			Position: pc.current,
			Correct:  pc.correct,
			Size:     pc.size,
		})
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	return v
}
