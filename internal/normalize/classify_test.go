package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryEmoji(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Wildfires", "🔥"},
		{"Volcanoes", "🌋"},
		{"Seismic swarm", "💥"},
		{"Severe Tropical Cyclone", "🌀"},
		{"HURRICANE WATCH", "🌀"},
		{"Coastal flood", "🌊"},
		{"Landslide risk", "🏔️"},
		{"Drought conditions", "🌵"},
		{"Sea and Lake Ice", "❄️"},
		{"Smoke plume", "🌫️"},
		{"Ashfall", EmojiWarning}, // no keyword match
		{"", EmojiWarning},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryEmoji(tc.in), "input %q", tc.in)
	}
}

func TestCategoryEmoji_PriorityOrder(t *testing.T) {
	// Both wildfire and storm keywords present: the earlier category wins.
	assert.Equal(t, "🔥", CategoryEmoji("wildfire sparked by storm"))
	// Earthquake outranks flood.
	assert.Equal(t, "💥", CategoryEmoji("flooding after earthquake"))
}

func TestSeverityColor(t *testing.T) {
	// Exact keyword match, case-insensitive.
	for _, s := range []string{"SEVERE", "severe", "Severe"} {
		assert.Equal(t, "#d7191c", SeverityColor(s))
	}

	assert.Equal(t, "#6f00ff", SeverityColor("Extreme"))
	assert.Equal(t, "#fdae61", SeverityColor("moderate"))
	assert.Equal(t, "#ffff99", SeverityColor("Minor"))

	// No partial matching and no guessing: unknown or absent severities are
	// neutral gray.
	assert.Equal(t, NeutralColor, SeverityColor("catastrophic"))
	assert.Equal(t, NeutralColor, SeverityColor("severely bad"))
	assert.Equal(t, NeutralColor, SeverityColor(""))
}
