package normalize

import (
	"time"

	"github.com/pulsemaps/pulsemap/internal/models"
)

// ToUpdateItem flattens one feed feature into a list record using the same
// per-source mapping as Normalize. Features without a resolvable coordinate
// (for example a line geometry) are dropped. now backs the sources that
// carry no usable timestamp so they still sort.
func ToUpdateItem(kind models.SourceKind, f models.Feature, now time.Time) (models.UpdateItem, bool) {
	coord, ok := f.Centroid()
	if !ok {
		return models.UpdateItem{}, false
	}
	props := f.Properties
	if props == nil {
		props = map[string]any{}
	}
	meta := Normalize(kind, props, coord)

	item := models.UpdateItem{
		Kind:      kind,
		Title:     meta.Title,
		Emoji:     meta.Emoji,
		Lat:       coord.Lat,
		Lon:       coord.Lon,
		Severity:  meta.Severity,
		SourceURL: meta.SourceURL,
	}
	if item.Emoji == "" && kind == models.KindReport {
		item.Emoji = EmojiPin
	}
	item.Time = eventTime(kind, props, now)
	return item, true
}

func eventTime(kind models.SourceKind, props map[string]any, now time.Time) time.Time {
	var t time.Time
	switch kind {
	case models.KindQuake:
		t = propTime(props, "time", "updated")
	case models.KindWeatherAlert:
		t = propTime(props, "effective", "onset", "sent")
	case models.KindNaturalEvent:
		t = propTime(props, "time", "updated")
	case models.KindFire:
		t = propTime(props, "acq_datetime", "acq_date")
	case models.KindReport:
		t = propTime(props, "reported_at")
	}
	if t.IsZero() && kind != models.KindReport {
		// Official feeds are live pulls; "now" is a fair stand-in. Reports
		// without a timestamp stay zero so the recency window excludes them.
		t = now
	}
	return t
}
