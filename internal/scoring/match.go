package scoring

import (
	"strings"
	"unicode"

	"resumeforge/internal/types"
)

// TextIndex answers whole-token phrase lookups over a block of text.
// Matching ignores case and punctuation, but keeps tech suffixes such as c++, c# and node.js.
type TextIndex struct {
	padded string
}

func newTextIndex(text string) *TextIndex {
	return &TextIndex{padded: " " + strings.Join(tokenize(text), " ") + " "}
}

// NewTextIndex tokenizes text for repeated lookups.
func NewTextIndex(text string) *TextIndex {
	return newTextIndex(text)
}

// Contains reports whether phrase appears as a contiguous run of tokens.
func (idx *TextIndex) Contains(phrase string) bool {
	tokens := tokenize(phrase)
	if len(tokens) == 0 {
		return false
	}
	return strings.Contains(idx.padded, " "+strings.Join(tokens, " ")+" ")
}

// ContainsEntry reports whether the entry's term or any of its variations is present.
func (idx *TextIndex) ContainsEntry(e types.KeywordEntry) bool {
	if idx.Contains(e.Term) {
		return true
	}
	for _, v := range e.Variations {
		if idx.Contains(v) {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	var (
		tokens []string
		word   strings.Builder
	)
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Match splits keyword entries into those present in the resume and those absent.
// Both slices keep the input order and are never nil.
type Match struct {
	Matched []types.KeywordEntry
	Missing []types.KeywordEntry
}

// MatchKeywords checks every entry against text.
func MatchKeywords(text string, entries []types.KeywordEntry) Match {
	return matchIndex(newTextIndex(text), entries)
}

func matchIndex(idx *TextIndex, entries []types.KeywordEntry) Match {
	m := Match{
		Matched: []types.KeywordEntry{},
		Missing: []types.KeywordEntry{},
	}
	for _, e := range entries {
		if idx.ContainsEntry(e) {
			m.Matched = append(m.Matched, e)
		} else {
			m.Missing = append(m.Missing, e)
		}
	}
	return m
}

// Terms returns the term of each entry.
func Terms(entries []types.KeywordEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Term)
	}
	return out
}
