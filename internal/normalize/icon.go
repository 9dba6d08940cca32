package normalize

import (
	"log/slog"
	"strings"
)

// DefaultIcon is the guaranteed-present fallback for unknown report icon keys.
const DefaultIcon = "Info"

// iconAliases maps a canonical kebab-case icon key to an ordered list of
// renderable icon identifiers. The view tries them in order; the kebab-to-
// Pascal form of the key itself is always tried first.
var iconAliases = map[string][]string{
	"gun":            {"Siren", "ShieldAlert", "AlertTriangle"},
	"car-accident":   {"Car", "CarFront"},
	"ambulance":      {"Ambulance"},
	"traffic-cone":   {"TrafficCone"},
	"construction":   {"Construction", "Hammer", "Wrench"},
	"help-circle":    {"HelpCircle", "CircleHelp"},
	"alert-triangle": {"AlertTriangle", "TriangleAlert"},
	"info":           {"Info", "CircleInfo"},
	"user-x":         {"UserX"},
	"user-search":    {"UserSearch", "UserRoundSearch"},
	"shield-alert":   {"ShieldAlert", "Shield"},
	"eye":            {"Eye"},
	"search":         {"Search"},
}

// IconCandidates resolves a report icon key into the ordered identifiers the
// view should try, ending with the guaranteed default. Unknown keys get a
// developer-visible diagnostic but never a user-visible failure.
func IconCandidates(name string) []string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "info"
	}
	candidates := []string{kebabToPascal(key)}
	aliases, known := iconAliases[key]
	candidates = append(candidates, aliases...)
	if !known {
		slog.Debug("unknown report icon key", "name", name, "fallback", DefaultIcon)
	}
	return append(candidates, DefaultIcon)
}

func kebabToPascal(s string) string {
	parts := strings.Split(s, "-")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
