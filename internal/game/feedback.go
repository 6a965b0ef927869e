package game

import (
	"sync"

	"jigsaw-online/internal/jigsaw"
)

// maxQueuedPulses bounds the pulses kept for a client that stopped polling
const maxQueuedPulses = 64

// PulseQueue buffers feedback pulses until the client collects them
type PulseQueue struct {
	mu     sync.Mutex
	pulses []jigsaw.PulseKind
}

// Pulse queues kind, dropping the oldest pulse when the queue is full
func (q *PulseQueue) Pulse(kind jigsaw.PulseKind) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pulses) == maxQueuedPulses {
		q.pulses = q.pulses[1:]
	}
	q.pulses = append(q.pulses, kind)
	return nil
}

// Drain returns and clears the queued pulses
func (q *PulseQueue) Drain() []jigsaw.PulseKind {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pulses
	q.pulses = nil
	if out == nil {
		out = []jigsaw.PulseKind{}
	}
	return out
}
