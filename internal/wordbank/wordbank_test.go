package wordbank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomWordComesFromABank(t *testing.T) {
	known := make(map[string]bool)
	for _, words := range categories {
		for _, w := range words {
			known[w] = true
		}
	}

	b := New(rand.New(rand.NewSource(1)))
	for i := 0; i < 200; i++ {
		w := b.RandomWord()
		require.True(t, known[w], "unknown word %q", w)
	}
}

func TestEveryCategoryIsReachable(t *testing.T) {
	wordToCategory := make(map[string]string)
	for name, words := range categories {
		for _, w := range words {
			wordToCategory[w] = name
		}
	}

	b := New(rand.New(rand.NewSource(42)))
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		seen[wordToCategory[b.RandomWord()]] = true
	}
	for _, name := range b.Categories() {
		assert.True(t, seen[name], "category %q never drawn", name)
	}
}

func TestNilSourceStillWorks(t *testing.T) {
	b := New(nil)
	assert.NotEmpty(t, b.RandomWord())
}
