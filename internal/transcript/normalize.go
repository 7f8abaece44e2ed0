// Package transcript normalizes speech-to-text output.
package transcript

import "strings"

// Normalize collapses runs of whitespace and trims the ends. An empty result
// means no speech was detected.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WordCount reports the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
