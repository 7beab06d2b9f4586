package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create prompt file %s: %v", name, err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	t.Cleanup(resetLoadedPrompts)
	tempDir := t.TempDir()

	systemFile := writePrompt(t, tempDir, "system.keywords.md", "  Extract ATS keywords.  \n")
	userFile := writePrompt(t, tempDir, "user.summary.md", "Write a summary for {{.TargetPosition}}")

	config := &Config{
		AI: AIConfig{
			Operations: OperationsConfig{
				ExtractKeywords: OperationAIConfig{CustomPrompts: PromptConfig{SystemFile: systemFile}},
				Summary:         OperationAIConfig{CustomPrompts: PromptConfig{UserFile: userFile}},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if got := GetPromptsForOperation(OpExtractKeywords).System; got != "Extract ATS keywords." {
		t.Errorf("Expected trimmed system prompt, got %q", got)
	}
	if got := GetPromptsForOperation(OpSummary).User; got != "Write a summary for {{.TargetPosition}}" {
		t.Errorf("Unexpected user prompt %q", got)
	}
	if got := GetPromptsForOperation(OpCoverLetter); got != (LoadedPrompts{}) {
		t.Errorf("Expected no prompts for coverLetter, got %+v", got)
	}

	// File paths stay in the config; content lives in the loaded store
	if config.AI.Operations.ExtractKeywords.CustomPrompts.System != "" {
		t.Error("Expected inline system prompt to stay empty")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePrompt(t, tempDir, "valid.md", "Valid content")

	tests := []struct {
		name      string
		prompts   PromptConfig
		expectErr bool
	}{
		{"no files", PromptConfig{}, false},
		{"existing file", PromptConfig{SystemFile: validFile}, false},
		{"missing file", PromptConfig{UserFile: filepath.Join(tempDir, "missing.md")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{AI: AIConfig{Operations: OperationsConfig{AssessFit: OperationAIConfig{CustomPrompts: tt.prompts}}}}
			err := config.validatePromptFiles()
			if tt.expectErr && err == nil {
				t.Error("Expected validation error, got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("empty file", func(t *testing.T) {
		path := writePrompt(t, tempDir, "empty.md", "  \n\t ")
		_, err := loadPromptFromFile(path, "system", "extractKeywords")
		if err == nil || !strings.Contains(err.Error(), "is empty") {
			t.Errorf("Expected empty file error, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadPromptFromFile(filepath.Join(tempDir, "nope.md"), "user", "summary")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("Expected not found error, got %v", err)
		}
	})

	t.Run("relative path", func(t *testing.T) {
		path := writePrompt(t, tempDir, "rel.md", "relative")
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		rel, err := filepath.Rel(wd, path)
		if err != nil {
			t.Skip("temp dir not reachable by a relative path")
		}
		content, err := loadPromptFromFile(rel, "user", "summary")
		if err != nil {
			t.Fatalf("Expected relative path to load, got %v", err)
		}
		if content != "relative" {
			t.Errorf("Expected 'relative', got %q", content)
		}
	})
}

func TestReloadPromptFile(t *testing.T) {
	t.Cleanup(resetLoadedPrompts)
	tempDir := t.TempDir()

	shared := writePrompt(t, tempDir, "shared-system.md", "version one")
	config := &Config{
		AI: AIConfig{
			Operations: OperationsConfig{
				CoverLetter: OperationAIConfig{CustomPrompts: PromptConfig{SystemFile: shared}},
				Summary:     OperationAIConfig{CustomPrompts: PromptConfig{SystemFile: shared}},
			},
		},
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	writePrompt(t, tempDir, "shared-system.md", "version two")
	n, err := config.ReloadPromptFile(shared)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 prompts reloaded, got %d", n)
	}
	if got := GetPromptsForOperation(OpCoverLetter).System; got != "version two" {
		t.Errorf("Expected reloaded content, got %q", got)
	}

	// A broken edit keeps the last good prompt
	writePrompt(t, tempDir, "shared-system.md", "   ")
	if _, err := config.ReloadPromptFile(shared); err == nil {
		t.Error("Expected error for emptied prompt file")
	}
	if got := GetPromptsForOperation(OpSummary).System; got != "version two" {
		t.Errorf("Expected previous content to survive, got %q", got)
	}

	n, err = config.ReloadPromptFile(filepath.Join(tempDir, "unrelated.md"))
	if err != nil || n != 0 {
		t.Errorf("Expected unrelated path to be ignored, got n=%d err=%v", n, err)
	}
}
