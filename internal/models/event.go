package models

import (
	"time"

	"github.com/pulsemaps/pulsemap/internal/geo"
)

// SourceKind discriminates the five feed shapes plus the three
// interaction-only selection origins (search, my-location, click).
type SourceKind string

const (
	KindSearch       SourceKind = "search"
	KindMyLocation   SourceKind = "my-location"
	KindClick        SourceKind = "click"
	KindQuake        SourceKind = "quake"
	KindFire         SourceKind = "fire"
	KindNaturalEvent SourceKind = "natural-event"
	KindReport       SourceKind = "report"
	KindWeatherAlert SourceKind = "weather-alert"
)

// FeedKinds are the kinds that originate from a collaborator feed.
var FeedKinds = []SourceKind{KindWeatherAlert, KindQuake, KindNaturalEvent, KindFire, KindReport}

// RawEvent is one record from a feed, tagged with its source kind. The
// property bag is open-ended; the normalizer is the only place that digs
// into it.
type RawEvent struct {
	Kind       SourceKind
	Coordinate geo.Coordinate
	Properties map[string]any
}

// Snapshot is one complete fetch of a feed. Snapshots are replaced
// wholesale; readers see either the previous complete set or the new one,
// never a partial merge.
type Snapshot struct {
	Kind      SourceKind
	Features  []Feature
	FetchedAt time.Time
}

// RawEvents narrows the snapshot to point records tagged for the
// normalizer, dropping features without a resolvable coordinate.
func (s Snapshot) RawEvents() []RawEvent {
	events := make([]RawEvent, 0, len(s.Features))
	for _, f := range s.Features {
		coord, ok := f.Centroid()
		if !ok {
			continue
		}
		props := f.Properties
		if props == nil {
			props = map[string]any{}
		}
		events = append(events, RawEvent{Kind: s.Kind, Coordinate: coord, Properties: props})
	}
	return events
}
