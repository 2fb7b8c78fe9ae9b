// Package wordbank provides the random category words drawn each round.
package wordbank

import (
	"math/rand"
)

var categories = map[string][]string{
	"animals":    {"dog", "cat", "elephant", "giraffe", "lion", "tiger", "penguin", "zebra", "monkey", "koala"},
	"objects":    {"chair", "table", "lamp", "phone", "computer", "book", "pencil", "clock", "glasses", "umbrella"},
	"food":       {"pizza", "burger", "sushi", "pasta", "sandwich", "taco", "cookie", "ice cream", "cake", "apple"},
	"places":     {"beach", "mountain", "park", "library", "school", "hospital", "airport", "restaurant", "museum", "cinema"},
	"activities": {"swimming", "running", "dancing", "singing", "reading", "writing", "cooking", "painting", "sleeping", "playing"},
}

var categoryNames []string

func init() {
	for name := range categories {
		categoryNames = append(categoryNames, name)
	}
}

// Bank picks a uniformly random word from a uniformly random category.
type Bank struct {
	rng *rand.Rand
}

// New returns a Bank seeded from the supplied source. A nil rng uses the
// shared global source.
func New(rng *rand.Rand) *Bank {
	return &Bank{rng: rng}
}

func (b *Bank) RandomWord() string {
	category := categoryNames[b.intn(len(categoryNames))]
	words := categories[category]
	return words[b.intn(len(words))]
}

// Categories returns the category labels, for diagnostics.
func (b *Bank) Categories() []string {
	out := make([]string, len(categoryNames))
	copy(out, categoryNames)
	return out
}

func (b *Bank) intn(n int) int {
	if b.rng != nil {
		return b.rng.Intn(n)
	}
	return rand.Intn(n)
}
