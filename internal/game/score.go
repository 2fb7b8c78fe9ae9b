package game

import (
	"math"
	"strings"
)

// MaxGuessPoints is the score for an instant correct guess.
const MaxGuessPoints = 100

// Points maps remaining round time to the score for a correct guess:
// ceil(timeLeft/roundDuration * 100), clamped to [0, MaxGuessPoints].
// Guessing with no time left yields 0; guessing instantly yields 100.
func Points(timeLeft, roundDuration int) int {
	if roundDuration <= 0 || timeLeft <= 0 {
		return 0
	}
	if timeLeft >= roundDuration {
		return MaxGuessPoints
	}
	return int(math.Ceil(float64(timeLeft) / float64(roundDuration) * float64(MaxGuessPoints)))
}

// GuessMatches reports whether a guess hits the round's word. Matching is
// exact string equality after trimming surrounding whitespace, ignoring case.
// There is no partial credit for near misses.
func GuessMatches(guess, word string) bool {
	if word == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(word))
}
