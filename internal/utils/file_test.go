package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(small, []byte("short resume"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		file    string
		maxSize int64
		wantErr string
	}{
		{"ok", small, 1024, ""},
		{"no limit", small, 0, ""},
		{"empty name", "", 0, "cannot be empty"},
		{"missing", filepath.Join(dir, "nope.txt"), 0, "does not exist"},
		{"directory", dir, 0, "directory"},
		{"too large", small, 4, "the limit is 4 B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.file, tt.maxSize)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFileKinds(t *testing.T) {
	cases := map[string]bool{
		"cv.TXT":  true,
		"cv.md":   true,
		"cv.json": true,
		"cv.pdf":  false,
		"cv.docx": false,
		"cv":      false,
	}
	for name, want := range cases {
		if got := IsTextFile(name); got != want {
			t.Errorf("IsTextFile(%q) = %v", name, got)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for in, want := range tests {
		if got := FormatFileSize(in); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}
