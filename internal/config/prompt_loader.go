package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// PromptFile ties a prompt file path to the operation and prompt half it feeds
type PromptFile struct {
	Operation Operation
	Kind      PromptKind
	Path      string // absolute
}

// PromptFiles lists every prompt file referenced by the configuration
func (c *Config) PromptFiles() []PromptFile {
	var files []PromptFile
	for _, op := range Operations {
		raw, _ := c.operationConfig(op)
		for _, f := range []struct {
			kind PromptKind
			path string
		}{
			{PromptSystem, raw.CustomPrompts.SystemFile},
			{PromptUser, raw.CustomPrompts.UserFile},
		} {
			if f.path == "" {
				continue
			}
			abs, err := filepath.Abs(f.path)
			if err != nil {
				abs = f.path
			}
			files = append(files, PromptFile{Operation: op, Kind: f.kind, Path: abs})
		}
	}
	return files
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	resetLoadedPrompts()
	for _, f := range c.PromptFiles() {
		content, err := loadPromptFromFile(f.Path, string(f.Kind), string(f.Operation))
		if err != nil {
			return fmt.Errorf("failed to load %s %s prompt: %w", f.Operation, f.Kind, err)
		}
		setLoadedPrompt(f.Operation, f.Kind, content)
	}

	c.logPromptLoadingSummary()
	return nil
}

// ReloadPromptFile re-reads every prompt bound to path and returns how many were refreshed.
// On error the previously loaded content stays in place.
func (c *Config) ReloadPromptFile(path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve prompt path %s: %w", path, err)
	}

	reloaded := 0
	for _, f := range c.PromptFiles() {
		if f.Path != abs {
			continue
		}
		content, err := loadPromptFromFile(f.Path, string(f.Kind), string(f.Operation))
		if err != nil {
			return reloaded, err
		}
		setLoadedPrompt(f.Operation, f.Kind, content)
		reloaded++
	}
	return reloaded, nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string
	for _, f := range c.PromptFiles() {
		if _, err := os.Stat(f.Path); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", f.Kind, f.Operation, f.Path))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptCount := 0
	for _, op := range Operations {
		p := GetPromptsForOperation(op)
		if p.System != "" {
			log.Printf("[CONFIG] %s system prompt: loaded from file", op)
			promptCount++
		}
		if p.User != "" {
			log.Printf("[CONFIG] %s user prompt: loaded from file", op)
			promptCount++
		}
	}

	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompt files loaded - using config or built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}
	log.Println("[CONFIG] ==========================================")
}
