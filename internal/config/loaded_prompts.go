package config

import (
	"sync"
)

// Loaded prompt content is process-wide so the prompt watcher can swap it while requests run.
var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   = map[Operation]LoadedPrompts{}
)

// LoadedPrompts holds the content of prompts loaded from files for one operation
type LoadedPrompts struct {
	System string
	User   string
}

// PromptKind says which half of an operation's prompt pair a file feeds
type PromptKind string

const (
	PromptSystem PromptKind = "system"
	PromptUser   PromptKind = "user"
)

// GetPromptsForOperation returns a copy of the loaded prompts for an operation
func GetPromptsForOperation(op Operation) LoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts[op]
}

func setLoadedPrompt(op Operation, kind PromptKind, content string) {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	p := loadedPrompts[op]
	switch kind {
	case PromptSystem:
		p.System = content
	case PromptUser:
		p.User = content
	}
	loadedPrompts[op] = p
}

// resetLoadedPrompts clears all loaded prompt content
func resetLoadedPrompts() {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	loadedPrompts = map[Operation]LoadedPrompts{}
}
