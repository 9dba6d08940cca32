package feeds

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pulsemaps/pulsemap/internal/config"
	"github.com/pulsemaps/pulsemap/internal/models"
	"github.com/pulsemaps/pulsemap/internal/observability"
	"github.com/pulsemaps/pulsemap/internal/worker"
)

// Fetcher pulls one feed's current feature collection.
type Fetcher interface {
	Fetch(ctx context.Context, kind models.SourceKind) (models.FeatureCollection, error)
}

// Manager owns the per-source snapshots and keeps them fresh via ticker
// pollers. A fetch failure stores an empty snapshot so downstream readers
// always see "no data" rather than an error or a stale partial merge.
type Manager struct {
	cfg     *config.Config
	fetcher Fetcher
	pool    *worker.Pool
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu        sync.RWMutex
	snapshots map[models.SourceKind]models.Snapshot

	wg sync.WaitGroup
}

func NewManager(cfg *config.Config, fetcher Fetcher, pool *worker.Pool, clock clockwork.Clock, metrics *observability.Metrics) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		cfg:       cfg,
		fetcher:   fetcher,
		pool:      pool,
		clock:     clock,
		metrics:   metrics,
		snapshots: make(map[models.SourceKind]models.Snapshot),
	}
}

func (m *Manager) Start(ctx context.Context) {
	for _, src := range m.cfg.Sources.All() {
		if !src.Enabled {
			continue
		}
		m.wg.Add(1)
		go m.runPoller(ctx, src.Kind, src.PollInterval)
	}
}

func (m *Manager) runPoller(ctx context.Context, kind models.SourceKind, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting feed poller", "source", kind, "interval", interval)

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	m.submitRefresh(kind)

	for {
		select {
		case <-ctx.Done():
			slog.Info("feed poller shutting down", "source", kind)
			return
		case <-ticker.Chan():
			m.submitRefresh(kind)
		}
	}
}

func (m *Manager) submitRefresh(kind models.SourceKind) {
	m.pool.Submit(func(ctx context.Context) error {
		return m.Refresh(ctx, kind)
	})
}

// Refresh pulls one source and replaces its snapshot wholesale. Failures
// degrade to an empty snapshot; the error is returned for logging only and
// never reaches a consumer.
func (m *Manager) Refresh(ctx context.Context, kind models.SourceKind) error {
	fc, err := m.fetcher.Fetch(ctx, kind)
	if err != nil {
		slog.Error("feed fetch failed", "source", kind, "error", err)
		m.store(models.Snapshot{Kind: kind, FetchedAt: m.clock.Now()})
		if m.metrics != nil {
			m.metrics.FeedFetches.WithLabelValues(string(kind), "error").Inc()
		}
		return err
	}

	m.store(models.Snapshot{Kind: kind, Features: fc.Features, FetchedAt: m.clock.Now()})
	if m.metrics != nil {
		m.metrics.FeedFetches.WithLabelValues(string(kind), "success").Inc()
		m.metrics.SnapshotSize.WithLabelValues(string(kind)).Set(float64(len(fc.Features)))
	}
	slog.Debug("feed refreshed", "source", kind, "count", len(fc.Features))
	return nil
}

// RefetchReports is the feedback loop from chat back into the map data: a
// turn that created a report invalidates the report snapshot.
func (m *Manager) RefetchReports(ctx context.Context) error {
	return m.Refresh(ctx, models.KindReport)
}

func (m *Manager) store(s models.Snapshot) {
	m.mu.Lock()
	m.snapshots[s.Kind] = s
	m.mu.Unlock()
}

// Snapshot returns the last complete fetch for a source, which may be empty
// if the source has not been polled yet.
func (m *Manager) Snapshot(kind models.SourceKind) models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[kind]
}

// Snapshots returns the current snapshot of every feed source in a stable
// order.
func (m *Manager) Snapshots() []models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Snapshot, 0, len(models.FeedKinds))
	for _, kind := range models.FeedKinds {
		out = append(out, m.snapshots[kind])
	}
	return out
}

func (m *Manager) Stop() {
	m.wg.Wait()
	slog.Info("feed manager stopped")
}
