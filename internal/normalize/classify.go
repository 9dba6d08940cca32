package normalize

import "strings"

// emojiRules map category keywords to a glyph. Order matters: the first
// matching rule wins, so "volcano eruption near wildfire zone" classifies as
// wildfire.
var emojiRules = []struct {
	keywords []string
	emoji    string
}{
	{[]string{"wildfire"}, "🔥"},
	{[]string{"volcano"}, "🌋"},
	{[]string{"earthquake", "seismic"}, "💥"},
	{[]string{"storm", "cyclone", "hurricane", "typhoon"}, "🌀"},
	{[]string{"flood"}, "🌊"},
	{[]string{"landslide"}, "🏔️"},
	{[]string{"drought"}, "🌵"},
	{[]string{"ice", "snow", "blizzard"}, "❄️"},
	{[]string{"dust", "smoke", "haze"}, "🌫️"},
}

// CategoryEmoji classifies free-form category or title text into a marker
// glyph. Matching is case-insensitive and substring-based; no match falls
// back to the generic warning glyph.
func CategoryEmoji(text string) string {
	s := strings.ToLower(text)
	for _, rule := range emojiRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.emoji
			}
		}
	}
	return EmojiWarning
}

const NeutralColor = "#9e9e9e"

// SeverityColor maps an alert severity word to the overlay color. Unlike the
// emoji classifier this is an exact keyword match: "catastrophic" or an empty
// severity both land on neutral gray.
func SeverityColor(severity string) string {
	switch strings.ToLower(severity) {
	case "extreme":
		return "#6f00ff"
	case "severe":
		return "#d7191c"
	case "moderate":
		return "#fdae61"
	case "minor":
		return "#ffff99"
	default:
		return NeutralColor
	}
}
