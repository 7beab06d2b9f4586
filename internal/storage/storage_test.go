package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumeforge/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelError)

type fakeS3 struct {
	objects map[string]string
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = params
	body, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

type s3NotFound struct{}

func (*s3NotFound) Error() string { return "NoSuchKey" }

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		ref        string
		bucket     string
		key        string
		shouldFail bool
	}{
		{"s3://resumes/2024/jane.pdf", "resumes", "2024/jane.pdf", false},
		{"s3://resumes//jane.pdf", "resumes", "jane.pdf", false},
		{"s3://resumes", "", "", true},
		{"s3:///jane.pdf", "", "", true},
		{"s3://resumes/folder/", "", "", true},
		{"/tmp/jane.pdf", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.ref)
			if tt.shouldFail {
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestS3Fetch(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"resumes/cv/jane.txt": "Jane Doe\nGo engineer"}}
	src := NewS3WithClient(fake, 1024, testLogger)

	doc, err := src.Fetch(context.Background(), "s3://resumes/cv/jane.txt")
	require.NoError(t, err)
	assert.Equal(t, "jane.txt", doc.Name)
	assert.Equal(t, "Jane Doe\nGo engineer", string(doc.Data))
	assert.Equal(t, "cv/jane.txt", aws.ToString(fake.input.Key))

	_, err = src.Fetch(context.Background(), "s3://resumes/missing.pdf")
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))

	small := NewS3WithClient(fake, 4, testLogger)
	_, err = small.Fetch(context.Background(), "s3://resumes/cv/jane.txt")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.md")
	require.NoError(t, os.WriteFile(path, []byte("# Jane"), 0600))

	fake := &fakeS3{objects: map[string]string{"b/cv.txt": "remote"}}

	withRemote := NewLoader(1024, NewS3WithClient(fake, 1024, testLogger), testLogger)
	doc, err := withRemote.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Jane", string(doc.Data))

	doc, err = withRemote.Fetch(context.Background(), "s3://b/cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(doc.Data))

	localOnly := NewLoader(1024, nil, testLogger)
	_, err = localOnly.Fetch(context.Background(), "s3://b/cv.txt")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = localOnly.Fetch(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(strings.NewReader("abcd"), 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	_, err = readLimited(strings.NewReader("abcde"), 4)
	assert.Error(t, err)

	data, err = readLimited(strings.NewReader("abcde"), 0)
	require.NoError(t, err)
	assert.Len(t, data, 5)
}
