package common

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
	"resumeforge/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelError)

type stubFetcher map[string]storage.Document

func (s stubFetcher) Fetch(_ context.Context, ref string) (storage.Document, error) {
	doc, ok := s[ref]
	if !ok {
		return storage.Document{}, errors.NewIOError(errors.ErrCodeFileNotFound, "missing "+ref, nil)
	}
	return doc, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileProcessorReadText(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "  Jane Doe\nGo engineer\n")

	fp := NewFileProcessor(nil, testLogger)

	text, err := fp.ReadText(context.Background(), resume)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo engineer", text)

	_, err = fp.ReadText(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = fp.ReadText(context.Background(), "s3://bucket/resume.pdf")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), "s3 references need a remote fetcher")
}

func TestFileProcessorReadJSON(t *testing.T) {
	fp := NewFileProcessor(stubFetcher{
		"good.json": {Name: "good.json", Data: []byte(`{"rms_contact_name":"Jane"}`)},
		"bad.json":  {Name: "bad.json", Data: []byte(`{"rms_contact_name":`)},
	}, testLogger)

	var fields map[string]string
	require.NoError(t, fp.ReadJSON(context.Background(), "good.json", &fields))
	assert.Equal(t, "Jane", fields["rms_contact_name"])

	err := fp.ReadJSON(context.Background(), "bad.json", &fields)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
}

type echoInput struct {
	Resume string
	Job    string
}

type echoOutput struct {
	Combined string `json:"combined"`
}

func TestRunAICommand(t *testing.T) {
	fp := NewFileProcessor(stubFetcher{
		"resume.txt": {Name: "resume.txt", Data: []byte("Go engineer")},
		"job.txt":    {Name: "job.txt", Data: []byte("Needs Go")},
	}, testLogger)

	createInput := func(contents []string) (echoInput, error) {
		if len(contents) != 2 {
			return echoInput{}, fmt.Errorf("expected 2 files, got %d", len(contents))
		}
		return echoInput{Resume: contents[0], Job: contents[1]}, nil
	}
	op := func(_ context.Context, in echoInput) (echoOutput, *ai.TokenUsage, error) {
		return echoOutput{Combined: in.Resume + " / " + in.Job}, &ai.TokenUsage{TotalTokens: 3}, nil
	}

	t.Run("writes formatted output to file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nested", "result.json")
		cfg := CommandConfig{OutputFile: out, OutputFormat: "json"}

		var logged bool
		err := RunAICommand(context.Background(), testLogger, fp, cfg, []string{"resume.txt", "job.txt"},
			createInput, op, func(echoInput, CommandConfig) { logged = true })
		require.NoError(t, err)
		assert.True(t, logged)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"combined": "Go engineer / Needs Go"`)
	})

	t.Run("input errors stop before the operation", func(t *testing.T) {
		called := false
		failing := func(_ context.Context, in echoInput) (echoOutput, *ai.TokenUsage, error) {
			called = true
			return echoOutput{}, nil, nil
		}
		err := RunAICommand(context.Background(), testLogger, fp, CommandConfig{OutputFormat: "json"},
			[]string{"resume.txt", "absent.txt"}, createInput, failing, nil)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
		assert.False(t, called)
	})

	t.Run("operation errors pass through", func(t *testing.T) {
		boom := errors.NewExtractionError(errors.ErrCodeExtractionFailed, "model down", nil)
		failing := func(context.Context, echoInput) (echoOutput, *ai.TokenUsage, error) {
			return echoOutput{}, nil, boom
		}
		err := RunAICommand(context.Background(), testLogger, fp, CommandConfig{OutputFormat: "json"},
			[]string{"resume.txt", "job.txt"}, createInput, failing, nil)
		assert.Equal(t, boom, err)
	})
}

func TestOutputHandlerStdout(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandler(NewFileProcessor(nil, testLogger), testLogger)
	oh.stdout = &buf

	require.NoError(t, oh.HandleOutput(echoOutput{Combined: "x"}, CommandConfig{OutputFormat: "json"}))
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	err := oh.HandleOutput(echoOutput{}, CommandConfig{OutputFormat: "yaml"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
