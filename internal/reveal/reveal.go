package reveal

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sink receives each revealed prefix. The chat log's latest assistant
// message is the only production sink.
type Sink interface {
	SetText(text string)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(string)

func (f SinkFunc) SetText(text string) { f(text) }

// Scheduler paces out a completed reply so the view layer sees a streaming
// appearance. The full text is known up front; this is cooperative pacing,
// not token streaming. Step size and delay scale inversely with length so
// long replies stay bounded in wall time.
type Scheduler struct {
	clock      clockwork.Clock
	firstToken atomic.Bool
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// policy picks the chunk size and inter-step delay for a reply of n units.
func policy(n int) (chunk int, delay time.Duration) {
	switch {
	case n > 1200:
		return 6, 4 * time.Millisecond
	case n > 400:
		return 3, 8 * time.Millisecond
	default:
		return 1, 15 * time.Millisecond
	}
}

// Reveal blocks until fullText has been delivered to the sink in strictly
// growing prefixes, the final one equal to fullText. Cancelling the context
// aborts the reveal; the sink keeps whatever prefix it last saw.
func (s *Scheduler) Reveal(ctx context.Context, fullText string, sink Sink) error {
	runes := []rune(fullText)
	chunk, delay := policy(len(runes))

	for i := 0; i < len(runes); i += chunk {
		end := i + chunk
		if end > len(runes) {
			end = len(runes)
		}
		prefix := string(runes[:end])
		sink.SetText(prefix)
		if prefix != "" {
			s.firstToken.Store(true)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(delay):
		}
	}
	return nil
}

// FirstToken reports whether any non-empty step has run this turn. It
// exists purely to gate the typing indicator.
func (s *Scheduler) FirstToken() bool {
	return s.firstToken.Load()
}

// Reset clears the first-token flag at the start of a turn.
func (s *Scheduler) Reset() {
	s.firstToken.Store(false)
}
