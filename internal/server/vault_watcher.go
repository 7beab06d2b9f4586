package server

import (
	"fmt"
	"sync"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
)

// APIKeysCallback receives the rotated API key set, or the error that prevented reading it
type APIKeysCallback func(keys []string, err error)

// VaultWatcher polls a KVv2 secret holding the server API keys and calls back when its
// version moves forward.
type VaultWatcher struct {
	mu sync.RWMutex

	client       config.SecretReader
	secretPath   string
	pollInterval time.Duration
	callback     APIKeysCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastKeys    int
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client config.SecretReader, secretPath string, pollInterval time.Duration, callback APIKeysCallback, logger *errors.Logger) *VaultWatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		callback:     callback,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start records the current secret version and begins polling. Keys already loaded at
// startup are not re-delivered.
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}

	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil && secret != nil {
		vw.lastVersion = secret.Version
	}

	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault API key watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	}
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault API key watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll runs one check and delivers new keys when the secret changed
func (vw *VaultWatcher) poll() {
	changed, err := vw.checkForUpdates()
	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to check Vault for updates")
		}
		return
	}
	if !changed {
		return
	}

	keys, err := vw.fetchKeys()
	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to fetch rotated API keys from Vault")
		}
		vw.callback(nil, err)
		return
	}

	vw.mu.Lock()
	vw.lastKeys = len(keys)
	vw.mu.Unlock()
	if vw.logger != nil {
		vw.logger.Info("API keys rotated from Vault", "keys", len(keys))
	}
	vw.callback(keys, nil)
}

// checkForUpdates checks if the Vault secret version has changed
func (vw *VaultWatcher) checkForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

func (vw *VaultWatcher) fetchKeys() ([]string, error) {
	keys, err := vw.client.GetStringSliceSecret(vw.secretPath, "keys")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch API keys from vault: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("secret %s has no API keys", vw.secretPath)
	}
	return keys, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"last_keys":     vw.lastKeys,
	}
}
