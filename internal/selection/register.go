package selection

import (
	"sync"
	"sync/atomic"

	"github.com/pulsemaps/pulsemap/internal/geo"
	"github.com/pulsemaps/pulsemap/internal/models"
)

// Change is what subscribers receive on every successful Select.
type Change struct {
	Coordinate geo.Coordinate
	Meta       models.SelectionMeta
}

// Register owns the single active (coordinate, metadata) pair. All six
// producers (search, geolocation, map click, marker click, list "View",
// drag) write through Select; consumers read through Current. The pair is
// replaced atomically: a coordinate is never visible without its matching
// metadata.
type Register struct {
	mu     sync.RWMutex
	coord  geo.Coordinate
	meta   models.SelectionMeta
	active bool

	nextID atomic.Uint64
	subsMu sync.RWMutex
	subs   map[uint64]chan Change
}

func NewRegister() *Register {
	return &Register{
		subs: make(map[uint64]chan Change),
	}
}

// Select replaces the active pair and notifies subscribers. No history is
// kept; the previous selection is discarded with no undo.
func (r *Register) Select(coord geo.Coordinate, meta models.SelectionMeta) {
	r.mu.Lock()
	r.coord = coord
	r.meta = meta
	r.active = true
	r.mu.Unlock()

	r.notify(Change{Coordinate: coord, Meta: meta})
}

// Clear drops both halves of the pair together.
func (r *Register) Clear() {
	r.mu.Lock()
	r.coord = geo.Coordinate{}
	r.meta = models.SelectionMeta{}
	r.active = false
	r.mu.Unlock()
}

// Current returns the active pair, or ok=false when nothing is selected.
func (r *Register) Current() (geo.Coordinate, models.SelectionMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coord, r.meta, r.active
}

// Subscribe registers a change listener. Every Select triggers a
// notification; the local-updates recomputation hangs off this.
func (r *Register) Subscribe() (uint64, <-chan Change) {
	id := r.nextID.Add(1)
	ch := make(chan Change, 16)

	r.subsMu.Lock()
	r.subs[id] = ch
	r.subsMu.Unlock()

	return id, ch
}

func (r *Register) Unsubscribe(id uint64) {
	r.subsMu.Lock()
	if ch, ok := r.subs[id]; ok {
		close(ch)
		delete(r.subs, id)
	}
	r.subsMu.Unlock()
}

// Close closes all subscriber channels so their goroutines exit.
func (r *Register) Close() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
}

func (r *Register) notify(c Change) {
	r.subsMu.RLock()
	defer r.subsMu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- c:
		default:
			// Skip slow subscribers; Select must never block on a consumer.
		}
	}
}
