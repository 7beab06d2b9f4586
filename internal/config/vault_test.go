package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"resumeforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeSecrets is an in-memory SecretReader
type fakeSecrets map[string]*VaultSecret

func (f fakeSecrets) GetSecretV2(path string) (*VaultSecret, error) {
	s, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return s, nil
}

func (f fakeSecrets) GetStringSecret(path, key string) (string, error) {
	s, err := f.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(s, path, key)
}

func (f fakeSecrets) GetStringSliceSecret(path, key string) ([]string, error) {
	v, err := f.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitKeys(v), nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKVv2(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s, err := parseKVv2(map[string]any{
			"data":     map[string]any{"keys": "a,b"},
			"metadata": map[string]any{"version": "3"},
		}, "p")
		require.NoError(t, err)
		assert.Equal(t, int64(3), s.Version)
		assert.Equal(t, "a,b", s.Data["keys"])
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"metadata": map[string]any{"version": 1}}, "p")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"data": map[string]any{}, "metadata": map[string]any{}}, "p")
		assert.ErrorContains(t, err, "missing 'version' field")
	})
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestApplySecrets(t *testing.T) {
	secrets := fakeSecrets{
		"secret/data/api":    {Data: map[string]any{"keys": "k1, k2"}, Version: 1},
		"secret/data/gemini": {Data: map[string]any{"api_key": "gem-key"}, Version: 1},
		"secret/data/redis":  {Data: map[string]any{"password": "hunter2", "username": "forge"}, Version: 1},
		"secret/data/s3":     {Data: map[string]any{"access_key_id": "AKIA", "secret_access_key": "shh"}, Version: 1},
	}

	cfg := &Config{
		Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{
			APIKeys:   "secret/data/api",
			GeminiKey: "secret/data/gemini",
			Redis:     "secret/data/redis",
			S3:        "secret/data/s3",
		}},
		AI: AIConfig{Operations: OperationsConfig{Summary: OperationAIConfig{APIKey: "summary-only"}}},
	}

	require.NoError(t, applySecrets(secrets, cfg, newTestLogger()))

	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "gem-key", cfg.AI.APIKey)
	assert.Equal(t, "gem-key", cfg.AI.Operations.ExtractKeywords.APIKey)
	assert.Equal(t, "summary-only", cfg.AI.Operations.Summary.APIKey, "explicit operation keys are kept")
	assert.Equal(t, "hunter2", cfg.Cache.Password)
	assert.Equal(t, "forge", cfg.Cache.Username)
	assert.Equal(t, "AKIA", cfg.Storage.S3.AccessKeyID)
	assert.Equal(t, "shh", cfg.Storage.S3.SecretAccessKey)
}

func TestApplySecretsErrors(t *testing.T) {
	secrets := fakeSecrets{
		"secret/data/s3": {Data: map[string]any{"access_key_id": "AKIA"}, Version: 1},
	}

	t.Run("missing path", func(t *testing.T) {
		cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{GeminiKey: "secret/data/none"}}}
		assert.ErrorContains(t, applySecrets(secrets, cfg, nil), "Gemini API key")
	})

	t.Run("incomplete s3 secret", func(t *testing.T) {
		cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{S3: "secret/data/s3"}}}
		assert.ErrorContains(t, applySecrets(secrets, cfg, nil), "secret_access_key")
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef0123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
