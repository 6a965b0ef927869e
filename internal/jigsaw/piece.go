package jigsaw

import (
	"fmt"
	"math"
)

// DefaultSnapThreshold is the snap distance in board units at zoom 1
const DefaultSnapThreshold = 20.0

// PieceState is the drag state of a piece
type PieceState int

const (
	Free PieceState = iota
	Dragging
	Completed
)

func (s PieceState) String() string {
	switch s {
	case Free:
		return "free"
	case Dragging:
		return "dragging"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("PieceState(%d)", int(s))
	}
}

// MarshalText lets views encode the state by name
func (s PieceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PieceListener receives the events a piece emits while it is dragged
type PieceListener interface {
	DragStarted(pieceID int)
	DragEnded(pieceID int)
	Snapped(pieceID int)
}

// Piece tracks a single piece through the drag/release/snap protocol
type Piece struct {
	id        int
	correct   Point
	size      Size
	base      Point
	current   Point
	state     PieceState
	threshold float64
	listener  PieceListener
}

// ReleaseResult describes what happened when a piece was let go
type ReleaseResult struct {
	PieceID  int     `json:"pieceId"`
	Snapped  bool    `json:"snapped"`
	Distance float64 `json:"distance"`
	Position Point   `json:"position"`
}

// NewPiece builds a Free piece at its template's initial position
func NewPiece(t PieceTemplate, threshold float64, listener PieceListener) (*Piece, error) {
	if !positiveFinite(t.Size.Width) || !positiveFinite(t.Size.Height) {
		return nil, fmt.Errorf("piece %d: invalid size %vx%v", t.ID, t.Size.Width, t.Size.Height)
	}
	if !finite(t.Correct) || !finite(t.Initial) {
		return nil, fmt.Errorf("piece %d: non-finite position", t.ID)
	}
	if threshold <= 0 {
		threshold = DefaultSnapThreshold
	}
	return &Piece{
		id:        t.ID,
		correct:   t.Correct,
		size:      t.Size,
		base:      t.Initial,
		current:   t.Initial,
		state:     Free,
		threshold: threshold,
		listener:  listener,
	}, nil
}

func (p *Piece) ID() int                { return p.id }
func (p *Piece) State() PieceState      { return p.state }
func (p *Piece) Correct() Point         { return p.correct }
func (p *Piece) Current() Point         { return p.current }
func (p *Piece) Size() Size             { return p.size }
func (p *Piece) IsCompleted() bool      { return p.state == Completed }
func (p *Piece) SnapThreshold() float64 { return p.threshold }

// Move applies a drag sample: the translation since the gesture began.
// The first sample of a gesture moves the piece to Dragging and emits DragStarted.
// Samples on a completed piece are ignored and reported as false.
func (p *Piece) Move(dx, dy float64) bool {
	switch p.state {
	case Completed:
		return false
	case Free:
		p.state = Dragging
		p.current = p.base.Add(dx, dy)
		if p.listener != nil {
			p.listener.DragStarted(p.id)
		}
	case Dragging:
		p.current = p.base.Add(dx, dy)
	}
	return true
}

// Release ends the gesture with its final translation. The piece snaps when the
// release point is strictly closer than threshold*scale to the correct slot.
// Only a dragging piece can be released; anything else is ignored.
func (p *Piece) Release(dx, dy, scale float64) (ReleaseResult, bool) {
	if p.state != Dragging {
		return ReleaseResult{PieceID: p.id, Position: p.current}, false
	}

	at := p.base.Add(dx, dy)
	dist := at.Distance(p.correct)
	res := ReleaseResult{PieceID: p.id, Distance: dist}

	if dist < p.threshold*scale {
		p.base = p.correct
		p.current = p.correct
		p.state = Completed
		res.Snapped = true
		res.Position = p.correct
		if p.listener != nil {
			p.listener.DragEnded(p.id)
			p.listener.Snapped(p.id)
		}
		return res, true
	}

	p.base = at
	p.current = at
	p.state = Free
	res.Position = at
	if p.listener != nil {
		p.listener.DragEnded(p.id)
	}
	return res, true
}

// restore marks the piece completed without going through a drag.
// Used when resuming saved progress.
func (p *Piece) restore() {
	p.base = p.correct
	p.current = p.correct
	p.state = Completed
}

// cancelDrag drops an unfinished gesture and puts the piece back where it started
func (p *Piece) cancelDrag() {
	if p.state != Dragging {
		return
	}
	p.current = p.base
	p.state = Free
	if p.listener != nil {
		p.listener.DragEnded(p.id)
	}
}

func finite(pt Point) bool {
	return !math.IsNaN(pt.X) && !math.IsInf(pt.X, 0) && !math.IsNaN(pt.Y) && !math.IsInf(pt.Y, 0)
}
