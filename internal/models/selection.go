package models

// SelectionMeta describes why a coordinate is selected. Normalized fields
// are preferred for display; Raw keeps the original property bag as a last
// resort only.
type SelectionMeta struct {
	Kind       SourceKind     `json:"kind"`
	Title      string         `json:"title"`
	Subtitle   string         `json:"subtitle,omitempty"`
	Severity   any            `json:"severity,omitempty"` // severity word or numeric magnitude
	Confidence *float64       `json:"confidence,omitempty"`
	Emoji      string         `json:"emoji,omitempty"` // glyph, or an icon key for user reports
	Category   string         `json:"category,omitempty"`
	SourceURL  string         `json:"sourceUrl,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Confidence1 is the fixed confidence for official (non-report) sources.
func Confidence1() *float64 {
	one := 1.0
	return &one
}
