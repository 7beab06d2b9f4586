package server

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"resumeforge/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockVaultClient is an in-memory config.SecretReader
type MockVaultClient struct {
	mu      sync.Mutex
	secrets map[string]*config.VaultSecret
	readErr error
}

func (m *MockVaultClient) set(path string, version int64, keys string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[path] = &config.VaultSecret{Data: map[string]any{"keys": keys}, Version: version}
}

func (m *MockVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.secrets[path], nil
}

func (m *MockVaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := m.GetSecretV2(path)
	if err != nil || secret == nil {
		return "", err
	}
	value, _ := secret.Data[key].(string)
	return value, nil
}

func (m *MockVaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := m.GetStringSecret(path, key)
	if err != nil || value == "" {
		return nil, err
	}
	return strings.Split(value, ","), nil
}

func TestVaultWatcherCheckForUpdates(t *testing.T) {
	client := &MockVaultClient{secrets: map[string]*config.VaultSecret{}}
	client.set("secret/data/keys", 2, "a,b")

	vw := NewVaultWatcher(client, "secret/data/keys", time.Minute, func([]string, error) {}, nil)

	changed, err := vw.checkForUpdates()
	require.NoError(t, err)
	assert.True(t, changed, "version 0 -> 2 is a change")

	changed, err = vw.checkForUpdates()
	require.NoError(t, err)
	assert.False(t, changed)

	client.set("secret/data/keys", 3, "c")
	changed, err = vw.checkForUpdates()
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestVaultWatcherPollDeliversKeys(t *testing.T) {
	client := &MockVaultClient{secrets: map[string]*config.VaultSecret{}}
	client.set("secret/data/keys", 1, "old")

	var got [][]string
	var gotErr error
	vw := NewVaultWatcher(client, "secret/data/keys", time.Minute, func(keys []string, err error) {
		got = append(got, keys)
		gotErr = err
	}, nil)
	vw.lastVersion = 1

	vw.poll()
	assert.Empty(t, got, "unchanged version must not call back")

	client.set("secret/data/keys", 2, "new-1,new-2")
	vw.poll()
	require.Len(t, got, 1)
	assert.Equal(t, []string{"new-1", "new-2"}, got[0])
	assert.NoError(t, gotErr)
	assert.Equal(t, 2, vw.Status()["last_keys"])

	client.set("secret/data/keys", 3, "")
	vw.poll()
	require.Len(t, got, 2)
	assert.Nil(t, got[1])
	assert.Error(t, gotErr, "an empty key set is reported, not applied")
}

func TestVaultWatcherReadError(t *testing.T) {
	client := &MockVaultClient{secrets: map[string]*config.VaultSecret{}, readErr: fmt.Errorf("sealed")}
	called := false
	vw := NewVaultWatcher(client, "secret/data/keys", time.Minute, func([]string, error) { called = true }, nil)

	_, err := vw.checkForUpdates()
	assert.ErrorContains(t, err, "sealed")

	vw.poll()
	assert.False(t, called)
}

func TestVaultWatcherRotatesServerKeys(t *testing.T) {
	client := &MockVaultClient{secrets: map[string]*config.VaultSecret{}}
	client.set("secret/data/keys", 1, "first-key")

	s := newTestServer(t, &fakeAnalyzer{}, nil)
	s.SetAPIKeys([]string{"first-key"})

	vw := NewVaultWatcher(client, "secret/data/keys", 10*time.Millisecond, func(keys []string, err error) {
		if err == nil {
			s.SetAPIKeys(keys)
		}
	}, nil)
	require.NoError(t, vw.Start())
	t.Cleanup(func() { _ = vw.Stop() })
	require.Error(t, vw.Start(), "second start is rejected")

	client.set("secret/data/keys", 2, "second-key")

	assert.Eventually(t, func() bool {
		return s.validAPIKey("second-key") && !s.validAPIKey("first-key")
	}, 2*time.Second, 10*time.Millisecond)
}
