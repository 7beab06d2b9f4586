// Package storage fetches resume documents from local paths or S3-compatible object stores.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/utils"
)

// S3Scheme prefixes object references, as in s3://bucket/key
const S3Scheme = "s3://"

// Document is a fetched file
type Document struct {
	Name string
	Data []byte
}

// Fetcher retrieves a document by reference
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (Document, error)
}

// Loader dispatches s3:// references to the object store and everything else to the local disk
type Loader struct {
	local   Fetcher
	remote  Fetcher
	maxSize int64
}

// NewLoader creates a loader. remote may be nil, in which case s3:// references are rejected.
func NewLoader(maxSize int64, remote Fetcher, logger *errors.Logger) *Loader {
	return &Loader{
		local:   &Local{MaxSize: maxSize, logger: logger},
		remote:  remote,
		maxSize: maxSize,
	}
}

// IsRemote reports whether ref names an object store location
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, S3Scheme)
}

// Fetch loads the document ref points to
func (l *Loader) Fetch(ctx context.Context, ref string) (Document, error) {
	if !IsRemote(ref) {
		return l.local.Fetch(ctx, ref)
	}
	if l.remote == nil {
		return Document{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Cannot fetch %s: S3 storage is not enabled", ref), nil)
	}
	return l.remote.Fetch(ctx, ref)
}

// Local reads files from disk
type Local struct {
	MaxSize int64
	logger  *errors.Logger
}

func (l *Local) Fetch(_ context.Context, filename string) (Document, error) {
	if err := utils.ValidateInputFile(filename, l.MaxSize); err != nil {
		return Document{}, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return Document{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && l.logger != nil {
			l.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	data, err := readLimited(file, l.MaxSize)
	if err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return Document{Name: filename, Data: data}, nil
}

// readLimited reads r fully, failing when it holds more than maxSize bytes. maxSize <= 0 means no limit.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("content exceeds %s limit", utils.FormatFileSize(maxSize))
	}
	return data, nil
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, S3Scheme)
	if !ok {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Not an S3 reference: %s", ref), nil)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("S3 reference must be s3://bucket/key: %s", ref), nil)
	}
	return bucket, key, nil
}

// objectName is the file name part of a key, used for format detection
func objectName(key string) string {
	return path.Base(key)
}
