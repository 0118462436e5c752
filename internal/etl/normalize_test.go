package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Financial District", NormalizeLocation("fidi"))
	assert.Equal(t, "SoMa", NormalizeLocation("SOMA"))
	assert.Equal(t, "Nob Hill", NormalizeLocation("nob hill"))
	assert.Equal(t, "Mission District", NormalizeLocation("mission"))
	assert.Equal(t, "The Castro", NormalizeLocation("castro"))
	assert.Equal(t, "Haight-Ashbury", NormalizeLocation("upper haight"))
}

func TestNormalizeLocationSubstringMatch(t *testing.T) {
	// Substring match wins even with extra words.
	assert.Equal(t, "Pacific Heights", NormalizeLocation("lower pac heights"))
	assert.Equal(t, "Mission District", NormalizeLocation("inner mission / valencia"))
}

func TestNormalizeLocationEmpty(t *testing.T) {
	assert.Equal(t, "Unknown", NormalizeLocation(""))
	assert.Equal(t, "Unknown", NormalizeLocation("   "))
}

func TestNormalizeLocationPassthroughTitleCased(t *testing.T) {
	assert.Equal(t, "Noe Valley", NormalizeLocation("Noe Valley"))
	assert.Equal(t, "Noe Valley", NormalizeLocation("noe valley"))
	assert.Equal(t, "Outer Richmond", NormalizeLocation("OUTER RICHMOND"))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "Sunny 2BR near park", CollapseWhitespace("  Sunny   2BR \t near\npark "))
	assert.Equal(t, "", CollapseWhitespace("   "))
}
