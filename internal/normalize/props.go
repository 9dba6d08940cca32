package normalize

import (
	"strconv"
	"time"
)

// Property bags arrive from five differently-shaped feeds; these helpers do
// the defensive narrowing so the per-source rules stay readable. Missing or
// mistyped fields resolve to the zero value, never a panic.

func propString(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func propFloat(props map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := props[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// propAny returns the first present non-nil value, whatever its type. Used
// for severity-like fields that may be a word or a number.
func propAny(props map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := props[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			return v
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// propTime resolves a timestamp from the bag: epoch milliseconds (quake
// feeds) or an ISO 8601 string. Returns the zero time when nothing parses.
func propTime(props map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		v, ok := props[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return time.UnixMilli(int64(t)).UTC()
		case int64:
			return time.UnixMilli(t).UTC()
		case string:
			for _, layout := range timeLayouts {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed.UTC()
				}
			}
		}
	}
	return time.Time{}
}
