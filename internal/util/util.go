package util

import (
	"math/rand"
	"unicode/utf8"
)

// RandomRange returns a random integer between min (inclusive) and max (exclusive)
func RandomRange(min, max int) int {
	if max <= min {
		return min
	}
	return rand.Intn(max-min) + min
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
