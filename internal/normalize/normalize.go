package normalize

import (
	"strconv"

	"github.com/pulsemaps/pulsemap/internal/geo"
	"github.com/pulsemaps/pulsemap/internal/models"
)

const (
	EmojiWarning = "⚠️"
	EmojiImpact  = "💥"
	EmojiFlame   = "🔥"
	EmojiPin     = "📝"
)

// Normalize converts one feed record into selection metadata. It is a pure
// function and never panics: every missing or malformed field resolves to a
// documented fallback. The raw bag is retained for display fallbacks only.
func Normalize(kind models.SourceKind, props map[string]any, coord geo.Coordinate) models.SelectionMeta {
	if props == nil {
		props = map[string]any{}
	}
	switch kind {
	case models.KindWeatherAlert:
		return normalizeAlert(props)
	case models.KindQuake:
		return normalizeQuake(props)
	case models.KindNaturalEvent:
		return normalizeNaturalEvent(props)
	case models.KindFire:
		return normalizeFire(props)
	case models.KindReport:
		return normalizeReport(props)
	default:
		// Interaction-only kinds (search, my-location, click) carry their
		// own titles; keep whatever the producer put in the bag.
		return models.SelectionMeta{
			Kind:  kind,
			Title: propString(props, "title"),
			Raw:   props,
		}
	}
}

func normalizeAlert(props map[string]any) models.SelectionMeta {
	title := propString(props, "event")
	if title == "" {
		title = "Alert"
	}
	severity := propString(props, "severity")
	if severity == "" {
		severity = "Unknown"
	}
	return models.SelectionMeta{
		Kind:       models.KindWeatherAlert,
		Title:      title,
		Severity:   severity,
		Confidence: models.Confidence1(),
		Emoji:      EmojiWarning,
		SourceURL:  propString(props, "@id", "id"),
		Raw:        props,
	}
}

func normalizeQuake(props map[string]any) models.SelectionMeta {
	place := propString(props, "place", "title")
	title := "Earthquake"
	if place != "" {
		title = "Earthquake at " + place
	}
	meta := models.SelectionMeta{
		Kind:       models.KindQuake,
		Title:      title,
		Confidence: models.Confidence1(),
		Emoji:      EmojiImpact,
		SourceURL:  propString(props, "url", "detail"),
		Raw:        props,
	}
	if mag, ok := propFloat(props, "mag", "Magnitude", "m"); ok {
		meta.Severity = "M" + strconv.FormatFloat(mag, 'f', -1, 64)
	}
	return meta
}

func normalizeNaturalEvent(props map[string]any) models.SelectionMeta {
	category := eventCategory(props)
	title := propString(props, "title")
	if title == "" {
		title = category
	}
	if title == "" {
		title = "Event"
	}
	// A present category is authoritative for classification; the title is
	// consulted only when no category resolves.
	classifier := category
	if classifier == "" {
		classifier = propString(props, "title")
	}
	return models.SelectionMeta{
		Kind:       models.KindNaturalEvent,
		Title:      title,
		Category:   category,
		Confidence: models.Confidence1(),
		Emoji:      CategoryEmoji(classifier),
		SourceURL:  propString(props, "link", "url"),
		Raw:        props,
	}
}

func normalizeFire(props map[string]any) models.SelectionMeta {
	return models.SelectionMeta{
		Kind:       models.KindFire,
		Title:      "Fire hotspot",
		Severity:   propAny(props, "confidence", "brightness", "frp"),
		Confidence: models.Confidence1(),
		Emoji:      EmojiFlame,
		Raw:        props,
	}
}

// User reports are the only source whose fields pass through untouched:
// severity, confidence, category and icon key are author-supplied and may be
// genuinely absent.
func normalizeReport(props map[string]any) models.SelectionMeta {
	title := propString(props, "text", "title")
	if title == "" {
		title = "User report"
	}
	meta := models.SelectionMeta{
		Kind:      models.KindReport,
		Title:     title,
		Severity:  propAny(props, "severity"),
		Category:  propString(props, "category"),
		Emoji:     propString(props, "emoji", "icon"),
		SourceURL: propString(props, "sourceUrl"),
		Raw:       props,
	}
	if conf, ok := propFloat(props, "confidence"); ok {
		meta.Confidence = &conf
	}
	return meta
}

// eventCategory digs the natural-event category out of either a flat
// "category" field or the nested categories[0].title form the upstream API
// uses.
func eventCategory(props map[string]any) string {
	if c := propString(props, "category"); c != "" {
		return c
	}
	cats, ok := props["categories"].([]any)
	if !ok || len(cats) == 0 {
		return ""
	}
	first, ok := cats[0].(map[string]any)
	if !ok {
		return ""
	}
	return propString(first, "title")
}
