package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Score("Ausschuss für Inneres", "Ausschuss für Inneres"))
}

func TestScoreNormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, 1.0, Score("Ausschuss  für\tInneres", "ausschuss für inneres"))
}

func TestScoreEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Score("", ""))
	assert.Equal(t, 0.0, Score("", "Haushaltsausschuss"))
	assert.Equal(t, 0.0, Score("Haushaltsausschuss", "   "))
}

func TestScoreNearMatchAboveNameThreshold(t *testing.T) {
	score := Score("Ausschuss für Inneres und Heimat", "Ausschuss für Inneres u. Heimat")
	assert.Greater(t, score, NameThreshold)
	assert.Less(t, score, 1.0)
}

func TestScoreUnrelatedBelowThresholds(t *testing.T) {
	score := Score("Haushaltsausschuss", "Petitionsausschuss des Landtags")
	assert.Less(t, score, NameThreshold)
}

func TestThresholdOrdering(t *testing.T) {
	// Content comparisons are stricter than name comparisons.
	assert.Greater(t, ContentThreshold, NameThreshold)
}
