package updates

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pulsemaps/pulsemap/internal/config"
	"github.com/pulsemaps/pulsemap/internal/geo"
	"github.com/pulsemaps/pulsemap/internal/models"
	"github.com/pulsemaps/pulsemap/internal/normalize"
	"github.com/pulsemaps/pulsemap/internal/selection"
)

// SnapshotSource provides the current complete snapshot of every feed.
type SnapshotSource interface {
	Snapshots() []models.Snapshot
}

// Aggregator derives the two ranked update lists from the feed snapshots:
// a local list scoped to a radius and recency window around the active
// selection, and an unscoped recency-only global list. Both are idempotent
// pulls; a feed that failed to fetch simply contributes nothing.
type Aggregator struct {
	src   SnapshotSource
	cfg   config.UpdatesConfig
	clock clockwork.Clock

	mu          sync.RWMutex
	cachedLocal []models.UpdateItem

	wg sync.WaitGroup
}

func NewAggregator(src SnapshotSource, cfg config.UpdatesConfig, clock clockwork.Clock) *Aggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Aggregator{src: src, cfg: cfg, clock: clock}
}

// Query carries per-request overrides of the configured scoping values.
// Zero fields fall back to the configured defaults.
type Query struct {
	RadiusMiles float64
	MaxAge      time.Duration
	Limit       int
}

// LocalUpdates returns all known events within the radius and recency
// window of coord, newest first, capped at the local limit. Query fields
// left zero use the configured defaults.
func (a *Aggregator) LocalUpdates(coord geo.Coordinate, q Query) []models.UpdateItem {
	now := a.clock.Now()
	radiusMiles := a.cfg.RadiusMiles
	if q.RadiusMiles > 0 {
		radiusMiles = q.RadiusMiles
	}
	maxAge := a.cfg.MaxAge
	if q.MaxAge > 0 {
		maxAge = q.MaxAge
	}
	limit := a.cfg.LocalLimit
	if q.Limit > 0 {
		limit = q.Limit
	}
	radiusKM := geo.MilesToKM(radiusMiles)

	var out []models.UpdateItem
	for _, snap := range a.src.Snapshots() {
		for _, f := range snap.Features {
			item, ok := normalize.ToUpdateItem(snap.Kind, f, now)
			if !ok {
				continue
			}
			if item.Time.IsZero() || now.Sub(item.Time) > maxAge {
				continue
			}
			if geo.DistanceKM(coord, item.Coordinate()) > radiusKM {
				continue
			}
			out = append(out, item)
		}
	}

	sortNewestFirst(out)
	return truncate(out, limit)
}

// GlobalUpdates returns all known events regardless of location, newest
// first, capped at the global limit unless the query overrides it.
func (a *Aggregator) GlobalUpdates(q Query) []models.UpdateItem {
	now := a.clock.Now()
	limit := a.cfg.GlobalLimit
	if q.Limit > 0 {
		limit = q.Limit
	}

	var out []models.UpdateItem
	for _, snap := range a.src.Snapshots() {
		for _, f := range snap.Features {
			item, ok := normalize.ToUpdateItem(snap.Kind, f, now)
			if !ok {
				continue
			}
			out = append(out, item)
		}
	}

	sortNewestFirst(out)
	return truncate(out, limit)
}

// Watch subscribes to the selection register and recomputes the cached
// local list on every selection change. Selecting a new point invalidates
// the locality window, so this is a mandatory downstream effect of Select.
func (a *Aggregator) Watch(ctx context.Context, reg *selection.Register) {
	id, ch := reg.Subscribe()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer reg.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-ch:
				if !ok {
					return
				}
				local := a.LocalUpdates(change.Coordinate, Query{})
				a.mu.Lock()
				a.cachedLocal = local
				a.mu.Unlock()
				slog.Debug("local updates recomputed", "count", len(local),
					"lat", change.Coordinate.Lat, "lon", change.Coordinate.Lon)
			}
		}
	}()
}

// CachedLocal returns the local list computed on the most recent selection
// change.
func (a *Aggregator) CachedLocal() []models.UpdateItem {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cachedLocal
}

func (a *Aggregator) Stop() {
	a.wg.Wait()
}

func sortNewestFirst(items []models.UpdateItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Time.After(items[j].Time)
	})
}

func truncate(items []models.UpdateItem, limit int) []models.UpdateItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
