package ai

import (
	"fmt"
	"slices"
	"strings"

	"resumeforge/internal/types"
)

const (
	// MinKeywords is the entry count required for a long job description
	MinKeywords = 25
	// LongDescriptionWords is the word count above which MinKeywords applies
	LongDescriptionWords = 50
	// keywordAttempts is the initial call plus one retry
	keywordAttempts = 2
)

// RequiredKeywords returns the minimum number of keywords an extraction must return for description
func RequiredKeywords(description string) int {
	if len(strings.Fields(description)) > LongDescriptionWords {
		return MinKeywords
	}
	return 0
}

// schemaError marks a response that parsed but broke the keyword contract
type schemaError struct {
	index  int
	reason string
}

func (e *schemaError) Error() string {
	return fmt.Sprintf("keyword %d: %s", e.index, e.reason)
}

// shortfallError marks a valid response with too few entries
type shortfallError struct {
	got, want int
}

func (e *shortfallError) Error() string {
	return fmt.Sprintf("got %d keywords, need at least %d", e.got, e.want)
}

// ValidateKeywords checks every entry against the keyword contract and returns
// the entries with terms trimmed and case-insensitive duplicates removed.
// The first occurrence of a duplicate wins.
func ValidateKeywords(entries []types.KeywordEntry) ([]types.KeywordEntry, error) {
	out := make([]types.KeywordEntry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for i, entry := range entries {
		entry.Term = strings.TrimSpace(entry.Term)
		if entry.Term == "" {
			return nil, &schemaError{index: i, reason: "empty term"}
		}
		if !slices.Contains(types.KeywordCategories, entry.Category) {
			return nil, &schemaError{index: i, reason: fmt.Sprintf("unknown category %q", entry.Category)}
		}
		if !slices.Contains(types.Importances, entry.Importance) {
			return nil, &schemaError{index: i, reason: fmt.Sprintf("unknown importance %q", entry.Importance)}
		}

		key := strings.ToLower(entry.Term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if entry.Variations == nil {
			entry.Variations = []string{}
		}
		if entry.Contexts == nil {
			entry.Contexts = []string{}
		}
		out = append(out, entry)
	}
	return out, nil
}

// checkKeywords validates a response and enforces the minimum count
func checkKeywords(entries []types.KeywordEntry, minimum int) ([]types.KeywordEntry, error) {
	valid, err := ValidateKeywords(entries)
	if err != nil {
		return nil, err
	}
	if len(valid) < minimum {
		return nil, &shortfallError{got: len(valid), want: minimum}
	}
	return valid, nil
}
