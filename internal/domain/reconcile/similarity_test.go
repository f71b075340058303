package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("Gibson", "Gibson"))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("  Les Paul ", "les paul"))
	})

	t.Run("empty string scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("", "Gibson"))
		assert.Equal(t, 0.0, Similarity("Gibson", ""))
		assert.Equal(t, 0.0, Similarity("", ""))
	})

	t.Run("token overlap dominates substring expansion", func(t *testing.T) {
		// Two of the three tokens survive, so the token ratio 2*2/(2+3)
		// wins over the character ratio.
		got := Similarity("Les Paul", "Les Paul Standard")
		assert.InDelta(t, 0.8, got, 0.001)
	})

	t.Run("unrelated strings score low", func(t *testing.T) {
		assert.Less(t, Similarity("Stratocaster", "Precision Bass"), 0.5)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t,
			Similarity("Jazzmaster", "Jaguar"),
			Similarity("Jaguar", "Jazzmaster"))
	})
}
