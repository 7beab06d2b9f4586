// Package cache stores extracted job keywords so repeat analyses of the same
// posting skip the model call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"resumeforge/internal/types"
)

// KeywordCache stores keyword lists by job posting. Get reports a miss with ok=false;
// errors are reserved for backend failures.
type KeywordCache interface {
	Get(ctx context.Context, key string) (entries []types.KeywordEntry, ok bool, err error)
	Set(ctx context.Context, key string, entries []types.KeywordEntry) error
	Close() error
}

// Key derives the cache key for a posting and the extraction options that shape the
// prompt. Whitespace and case differences in the inputs map to the same key.
func Key(job types.JobPosting, industryContext string, targetScore *int) string {
	target := ""
	if targetScore != nil {
		target = strconv.Itoa(*targetScore)
	}
	h := sha256.New()
	for _, part := range []string{job.Title, job.Company, job.Description, industryContext, target} {
		h.Write([]byte(strings.ToLower(strings.Join(strings.Fields(part), " "))))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]types.KeywordEntry, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []types.KeywordEntry) error { return nil }

func (Noop) Close() error { return nil }
