package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeDropsUnit(t *testing.T) {
	s1, sub, st, pc, k1 := Canonicalize("3/12 Shore Street", "North Mackay", "Queensland", "4740")
	_, _, _, _, k2 := Canonicalize("Unit 7, 12 Shore St.", "north mackay", "QLD", "4740")

	assert.Equal(t, "12 SHORE ST", s1)
	assert.Equal(t, "NORTH MACKAY", sub)
	assert.Equal(t, "QLD", st)
	assert.Equal(t, "4740", pc)
	assert.Equal(t, k1, k2)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "12 Shore St, Mackay QLD 4740", Display("12 Shore St", "Mackay", "qld", "4740"))
	assert.Equal(t, "Mackay QLD", Display("", "Mackay", "QLD", ""))
	assert.Equal(t, "", Display("", "", "", ""))
}

func TestMatchesAll(t *testing.T) {
	text := Normalize("12 Shore Street, North Mackay QLD 4740 beachside cottage")
	assert.True(t, MatchesAll(text, Terms("shore st")))
	assert.True(t, MatchesAll(text, Terms("North Mackay, Queensland")))
	assert.False(t, MatchesAll(text, Terms("south mackay")))
	assert.True(t, MatchesAll(text, nil))
}
