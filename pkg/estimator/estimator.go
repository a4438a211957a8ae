// Package estimator implements a cheap, deterministic token-count heuristic
// used by the descriptor builder and the router for sizing decisions. It's
// used only for routing and telemetry, never for billing or compliance, so
// it intentionally does not call out to a model-specific tokenizer.
package estimator

import (
	"strings"
	"unicode/utf8"
)

// Version identifies the heuristic's revision. ContextDescriptor.EstimatedTokens
// is only deterministic relative to a fixed Version; bump this if the
// heuristic's constants ever change.
const Version = "v1"

const (
	wordInflation        = 1.3
	punctuationInflation = 1.1
	codeInflation        = 1.4
)

// codeMarkers is the fixed set of tokens used to decide whether a blob
// "looks like source code". At least three distinct markers must appear.
var codeMarkers = []string{
	"def ", "function ", "class ", "import ", "from ",
	"{", "}", "()", "=>", "==", "!=", "&&", "||",
}

// EstimateText approximates the token count of a text blob: words * 1.3 *
// 1.1 * c, where c is 1.4 when the blob looks like source code and 1.0
// otherwise.
func EstimateText(text string) int {
	words := countWords(text)
	c := 1.0
	if LooksLikeCode(text) {
		c = codeInflation
	}

	tokens := float64(words) * wordInflation * punctuationInflation * c
	return int(tokens + 0.5)
}

// EstimateBytes estimates tokens for raw bytes. It decodes as UTF-8 text and
// falls back to bytes/4 when the input doesn't look like valid, printable
// text.
func EstimateBytes(data []byte) int {
	if !LooksLikeText(data) {
		return len(data) / 4
	}
	return EstimateText(string(data))
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func LooksLikeCode(text string) bool {
	matches := 0
	for _, marker := range codeMarkers {
		if strings.Contains(text, marker) {
			matches++
			if matches >= 3 {
				return true
			}
		}
	}
	return false
}

// LooksLikeText reports whether data decodes as valid UTF-8 and is mostly
// free of NUL bytes and other non-printable control characters. Exported so
// the descriptor builder can reuse the same binary/text signal when
// sniffing dataKind instead of re-deriving it.
func LooksLikeText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if !utf8.Valid(data) {
		return false
	}

	nonPrintable := 0
	for _, b := range data {
		if b == 0 {
			return false
		}
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			nonPrintable++
		}
	}
	// Tolerate a small fraction of control bytes (e.g. terminal escape codes)
	// without calling the whole blob binary.
	return float64(nonPrintable)/float64(len(data)) < 0.01
}
