package models

import (
	"time"

	"github.com/pulsemaps/pulsemap/internal/geo"
)

// UpdateItem is the flattened, feed-agnostic record shown in the local and
// global update lists.
type UpdateItem struct {
	Kind      SourceKind `json:"kind"`
	Title     string     `json:"title"`
	Emoji     string     `json:"emoji"`
	Time      time.Time  `json:"time"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Severity  any        `json:"severity,omitempty"`
	SourceURL string     `json:"sourceUrl,omitempty"`
}

func (u UpdateItem) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: u.Lat, Lon: u.Lon}
}

// Meta converts a list entry back into selection metadata so the list and
// the map share one selection surface.
func (u UpdateItem) Meta() SelectionMeta {
	return SelectionMeta{
		Kind:      u.Kind,
		Title:     u.Title,
		Severity:  u.Severity,
		Emoji:     u.Emoji,
		SourceURL: u.SourceURL,
	}
}
