package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"resumeforge/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// PromptReloader re-reads a prompt file. *config.Config implements it.
type PromptReloader interface {
	ReloadPromptFile(path string) (int, error)
}

// PromptWatcher watches prompt override files and reloads them after edits settle
type PromptWatcher struct {
	mu sync.Mutex

	files       []string
	lastModTime map[string]time.Time
	pending     map[string]struct{}

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reloader PromptReloader
	logger   *errors.Logger

	running bool
}

// NewPromptWatcher creates a watcher for files. Paths are made absolute.
func NewPromptWatcher(files []string, debounceDelay time.Duration, reloader PromptReloader, logger *errors.Logger) *PromptWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	abs := make([]string, 0, len(files))
	for _, f := range files {
		if p, err := filepath.Abs(f); err == nil {
			f = p
		}
		if !slices.Contains(abs, f) {
			abs = append(abs, f)
		}
	}

	return &PromptWatcher{
		files:         abs,
		lastModTime:   make(map[string]time.Time),
		pending:       make(map[string]struct{}),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		reloader:      reloader,
		logger:        logger,
	}
}

// Start begins watching. Files that cannot be watched are logged and skipped.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher

	for _, file := range pw.files {
		if stat, err := os.Stat(file); err == nil {
			pw.lastModTime[file] = stat.ModTime()
		}
		// Directories catch editors that save by rename
		dir := filepath.Dir(file)
		if err := pw.fsWatcher.Add(dir); err != nil && pw.logger != nil {
			pw.logger.Warn("Failed to watch prompt directory", "directory", dir, "error", err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher started",
			"files", pw.files,
			"debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.running = false

	if pw.fsWatcher != nil {
		if err := pw.fsWatcher.Close(); err != nil {
			if pw.logger != nil {
				pw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher stopped")
	}
	return nil
}

func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if file, match := pw.watchedFile(event); match {
				pw.scheduleReload(file)
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "File watcher error")
			}

		case <-pw.reloadChan:
			pw.reloadPending()

		case <-pw.stopChan:
			return
		}
	}
}

// watchedFile maps a write, create or rename event onto the watched file it touches
func (pw *PromptWatcher) watchedFile(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return "", false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = event.Name
	}
	if slices.Contains(pw.files, name) {
		return name, true
	}
	return "", false
}

// scheduleReload queues file and restarts the debounce timer
func (pw *PromptWatcher) scheduleReload(file string) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.pending[file] = struct{}{}
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
			// already scheduled
		}
	})
}

// reloadPending reloads every queued file whose modification time moved
func (pw *PromptWatcher) reloadPending() {
	pw.mu.Lock()
	files := make([]string, 0, len(pw.pending))
	for f := range pw.pending {
		files = append(files, f)
	}
	clear(pw.pending)
	pw.mu.Unlock()

	slices.Sort(files)
	for _, file := range files {
		if !pw.hasFileChanged(file) {
			continue
		}
		n, err := pw.reloader.ReloadPromptFile(file)
		if err != nil {
			if pw.logger != nil {
				pw.logger.LogError(err, "Failed to reload prompt file, keeping previous prompt", "file", file)
			}
			continue
		}
		if pw.logger != nil {
			pw.logger.Info("Prompt file reloaded", "file", file, "prompts", n)
		}
	}
}

// hasFileChanged reports whether file exists with a newer modification time than last seen
func (pw *PromptWatcher) hasFileChanged(file string) bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	stat, err := os.Stat(file)
	if err != nil {
		return false
	}
	lastMod, exists := pw.lastModTime[file]
	if !exists || stat.ModTime().After(lastMod) {
		pw.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}

// IsRunning returns whether the watcher is currently running
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.running
}

// GetWatchedFiles returns the absolute paths being watched
func (pw *PromptWatcher) GetWatchedFiles() []string {
	return slices.Clone(pw.files)
}
