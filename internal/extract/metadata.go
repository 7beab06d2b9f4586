package extract

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"resumeforge/internal/types"
)

// CommandRunner runs an external program and returns its standard output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Keys the metadata tool reports about the temp file itself rather than the document
var ignoredMetadataKeys = map[string]bool{
	"SourceFile":          true,
	"FileName":            true,
	"Directory":           true,
	"FilePermissions":     true,
	"FileModifyDate":      true,
	"FileAccessDate":      true,
	"FileInodeChangeDate": true,
	"ExifToolVersion":     true,
}

// addMetadata writes data to a temp file, runs the metadata command on it and merges
// the result into report. The temp file is removed on every path.
func (i *Inspector) addMetadata(ctx context.Context, format Format, data []byte, report *types.InspectionReport) {
	if i.cfg.MetadataCommand == "" {
		return
	}

	meta, err := i.readMetadata(ctx, format, data)
	if err != nil {
		if stderrors.Is(err, exec.ErrNotFound) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Metadata tool %q is not installed; document metadata omitted", i.cfg.MetadataCommand))
		} else {
			report.Warnings = append(report.Warnings, "Document metadata could not be read: "+err.Error())
		}
		if i.logger != nil {
			i.logger.Warn("Metadata extraction failed", "command", i.cfg.MetadataCommand, "error", err.Error())
		}
		return
	}

	for key, value := range meta {
		report.Metadata[key] = value
	}
}

func (i *Inspector) readMetadata(ctx context.Context, format Format, data []byte) (map[string]string, error) {
	tmp, err := os.CreateTemp("", "resumeforge-*."+string(format))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && i.logger != nil {
			i.logger.Warn("Failed to remove temp file", "path", path, "error", err.Error())
		}
	}()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		return nil, fmt.Errorf("write temp file: %w", writeErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close temp file: %w", closeErr)
	}

	timeout := i.cfg.MetadataTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, i.cfg.MetadataArgs...), path)
	out, err := i.runner.Run(runCtx, i.cfg.MetadataCommand, args...)
	if err != nil {
		return nil, err
	}
	return parseMetadata(out)
}

// parseMetadata reads exiftool-style JSON: an array holding one object per file
func parseMetadata(out []byte) (map[string]string, error) {
	var docs []map[string]any
	if err := json.Unmarshal(out, &docs); err != nil {
		return nil, fmt.Errorf("parse metadata output: %w", err)
	}

	meta := map[string]string{}
	if len(docs) == 0 {
		return meta, nil
	}
	for key, value := range docs[0] {
		if ignoredMetadataKeys[key] || value == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(value))
		if s != "" {
			meta[key] = s
		}
	}
	return meta, nil
}
