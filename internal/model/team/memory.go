package team

import "strings"

// Length controls how verbose the AI teammate's explanations should be.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Memory is the session-scoped adaptation state steering the teammate.
// It is created once with defaults and mutated only through Apply.
type Memory struct {
	ExplanationLength Length
	FocusEquity       bool
	Instructions      []string
}

// NewMemory returns the session defaults: medium-length explanations,
// no equity emphasis, empty instruction history.
func NewMemory() Memory {
	return Memory{ExplanationLength: LengthMedium}
}

var (
	shortenKeywords  = []string{"short", "concise", "brief"}
	lengthenKeywords = []string{"more detail", "longer", "explain more"}
	equityKeywords   = []string{"equity", "fairness", "fair"}
)

// Apply folds one raw participant instruction into the memory and
// returns the updated value. The raw text is always appended to the
// instruction history, matched or not. Keyword matching is
// case-insensitive substring search; the shorten family wins over the
// lengthen family when both match, and the equity flag is independent
// of either. The adaptation is a one-way ratchet: no instruction
// restores the medium default or clears the equity flag.
func Apply(m Memory, raw string) Memory {
	m.Instructions = append(append([]string(nil), m.Instructions...), raw)

	text := strings.ToLower(raw)
	switch {
	case containsAny(text, shortenKeywords):
		m.ExplanationLength = LengthShort
	case containsAny(text, lengthenKeywords):
		m.ExplanationLength = LengthLong
	}

	if containsAny(text, equityKeywords) {
		m.FocusEquity = true
	}

	return m
}

func containsAny(text string, keywords []string) bool {
	for _, word := range keywords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
