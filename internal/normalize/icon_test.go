package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIconCandidates_KnownAlias(t *testing.T) {
	got := IconCandidates("gun")
	assert.Equal(t, []string{"Gun", "Siren", "ShieldAlert", "AlertTriangle", DefaultIcon}, got)
}

func TestIconCandidates_KebabDirectFormFirst(t *testing.T) {
	got := IconCandidates("alert-triangle")
	assert.Equal(t, "AlertTriangle", got[0])
	assert.Equal(t, DefaultIcon, got[len(got)-1])
}

func TestIconCandidates_UnknownKeyStillResolves(t *testing.T) {
	got := IconCandidates("sinkhole-monster")
	assert.Equal(t, []string{"SinkholeMonster", DefaultIcon}, got)
}

func TestIconCandidates_EmptyDefaultsToInfo(t *testing.T) {
	got := IconCandidates("")
	assert.Equal(t, "Info", got[0])
	assert.Contains(t, got, DefaultIcon)
}

func TestKebabToPascal(t *testing.T) {
	assert.Equal(t, "TrafficCone", kebabToPascal("traffic-cone"))
	assert.Equal(t, "Eye", kebabToPascal("eye"))
	assert.Equal(t, "UserRoundSearch", kebabToPascal("user-round-search"))
}
