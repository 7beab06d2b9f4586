package ai

import (
	"strings"
	"testing"

	"resumeforge/internal/types"
)

func TestRequiredKeywords(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{50, 0},
		{51, MinKeywords},
		{400, MinKeywords},
	}
	for _, tt := range tests {
		desc := strings.TrimSpace(strings.Repeat("word ", tt.words))
		if got := RequiredKeywords(desc); got != tt.want {
			t.Errorf("RequiredKeywords(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestValidateKeywords(t *testing.T) {
	entries := []types.KeywordEntry{
		{Term: " Go ", Category: types.CategorySkill, Importance: types.ImportanceRequired},
		{Term: "go", Category: types.CategoryTool, Importance: types.ImportancePreferred},
		{Term: "Kubernetes", Category: types.CategoryTool, Importance: types.ImportanceNiceToHave, Variations: []string{"k8s"}},
	}

	got, err := ValidateKeywords(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected duplicates removed, got %d entries", len(got))
	}
	if got[0].Term != "Go" || got[0].Category != types.CategorySkill {
		t.Errorf("first occurrence should win and be trimmed, got %+v", got[0])
	}
	if got[0].Variations == nil || got[0].Contexts == nil {
		t.Error("list fields should be non-nil")
	}
	if got[1].Variations[0] != "k8s" {
		t.Errorf("variations lost: %+v", got[1])
	}
}

func TestValidateKeywordsRejects(t *testing.T) {
	tests := []struct {
		name  string
		entry types.KeywordEntry
	}{
		{"blank term", types.KeywordEntry{Term: "  ", Category: types.CategorySkill, Importance: types.ImportanceRequired}},
		{"bad category", types.KeywordEntry{Term: "Go", Category: "language", Importance: types.ImportanceRequired}},
		{"bad importance", types.KeywordEntry{Term: "Go", Category: types.CategorySkill, Importance: "critical"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateKeywords([]types.KeywordEntry{tt.entry}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCheckKeywordsCountsAfterDedupe(t *testing.T) {
	entries := keywordsOf(25)
	entries[24].Term = strings.ToUpper(entries[0].Term)

	if _, err := checkKeywords(entries, MinKeywords); err == nil {
		t.Error("duplicates must not count toward the minimum")
	}
}
