package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	analysis types.AnalysisResult
	letter   types.CoverLetterOutput
	summary  types.SummaryOutput
	err      error

	lastLetter types.CoverLetterInput
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ types.AnalysisRequest) (types.AnalysisResult, *ai.TokenUsage, error) {
	return f.analysis, &ai.TokenUsage{TotalTokens: 42}, f.err
}

func (f *fakeAnalyzer) GenerateCoverLetter(_ context.Context, in types.CoverLetterInput) (types.CoverLetterOutput, *ai.TokenUsage, error) {
	f.lastLetter = in
	return f.letter, nil, f.err
}

func (f *fakeAnalyzer) GenerateSummary(_ context.Context, _ types.SummaryInput) (types.SummaryOutput, *ai.TokenUsage, error) {
	return f.summary, nil, f.err
}

type fakeInspector struct {
	gotName string
	gotData []byte
}

func (f *fakeInspector) Inspect(_ context.Context, name string, data []byte) (types.InspectionReport, error) {
	f.gotName, f.gotData = name, data
	return types.InspectionReport{FileName: name, ContentType: "text/plain", SizeBytes: int64(len(data)), Pages: 1}, nil
}

type fakeModels struct {
	available bool
}

func (f fakeModels) GetModelInfo(context.Context) map[config.Operation]*ai.ModelInfo {
	return map[config.Operation]*ai.ModelInfo{
		config.OpExtractKeywords: {Name: "gemini-test", Available: true},
		config.OpAssessFit:       {Name: "gemini-test", Available: f.available},
	}
}

func (f fakeModels) CircuitBreakerStats() map[string]any {
	return map[string]any{"assessFit": map[string]any{"state": "closed"}}
}

func testLogger() *errors.Logger {
	return errors.NewLoggerWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, analyzer Analyzer, mutate func(*ServerConfig, *Dependencies)) *Server {
	t.Helper()
	cfg := ServerConfig{Version: "test", MaxRequestSize: 1 << 20}
	deps := Dependencies{Analyzer: analyzer, Inspector: &fakeInspector{}}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	s := NewServer(&config.Config{}, cfg, deps, testLogger())
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func validAnalysisRequest() types.AnalysisRequest {
	return types.AnalysisRequest{
		ResumeText:     "Jane Doe\njane@example.com\nEXPERIENCE\nEngineer at Acme",
		JobTitle:       "Platform Engineer",
		JobDescription: "We need Go and Kubernetes.",
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: types.AnalysisResult{AnalysisID: "abc", ATSScore: 76}}
	h := newTestServer(t, analyzer, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/analyze", validAnalysisRequest(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "abc", result.AnalysisID)
	assert.Equal(t, 76, result.ATSScore)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"extraction", errors.NewExtractionError(errors.ErrCodeKeywordShortfall, "too few keywords", nil), http.StatusBadGateway, errors.ErrCodeKeywordShortfall},
		{"processing", errors.NewProcessingError(errors.ErrCodeProcessingFailed, "scorer failed", nil), http.StatusInternalServerError, errors.ErrCodeProcessingFailed},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeAnalyzer{err: tt.err}, nil).Handler(nil)
			rec := do(t, h, http.MethodPost, "/analyze", validAnalysisRequest(), nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec).Error)
		})
	}
}

func TestRequestValidation(t *testing.T) {
	h := newTestServer(t, &fakeAnalyzer{}, nil).Handler(nil)

	tests := []struct {
		name    string
		path    string
		body    any
		ctype   string
		wantErr string
	}{
		{"missing job title", "/analyze", types.AnalysisRequest{ResumeText: "x", JobDescription: "y"}, "", errors.ErrCodeInvalidRequest},
		{"two resume sources", "/analyze", types.AnalysisRequest{ResumeText: "x", ResumeData: map[string]string{"rms_contact_name": "A"}, JobTitle: "t", JobDescription: "d"}, "", errors.ErrCodeInvalidRequest},
		{"malformed json", "/analyze", "{not json", "", errors.ErrCodeInvalidFormat},
		{"wrong content type", "/summary", "existingExperience=x", "text/plain", errors.ErrCodeInvalidRequest},
		{"bad tone", "/cover-letter", types.CoverLetterInput{ResumeText: "r", JobTitle: "t", CompanyName: "c", Tone: "sarcastic"}, "", errors.ErrCodeInvalidRequest},
		{"empty summary", "/summary", types.SummaryInput{}, "", errors.ErrCodeInvalidRequest},
		{"no normalize source", "/normalize", NormalizeRequest{}, "", errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers map[string]string
			if tt.ctype != "" {
				headers = map[string]string{"Content-Type": tt.ctype}
			}
			rec := do(t, h, http.MethodPost, tt.path, tt.body, headers)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, decodeError(t, rec).Error)
		})
	}
}

func TestCoverLetterAndSummaryEndpoints(t *testing.T) {
	analyzer := &fakeAnalyzer{
		letter:  types.CoverLetterOutput{CoverLetter: "Dear team", Metadata: types.CoverLetterMetadata{Tone: types.ToneProfessional}},
		summary: types.SummaryOutput{Summary: "Seasoned engineer"},
	}
	h := newTestServer(t, analyzer, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/cover-letter", types.CoverLetterInput{ResumeText: "r", JobTitle: "t", CompanyName: "c"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, types.ToneProfessional, analyzer.lastLetter.Tone, "defaults are applied before the model is called")
	assert.Equal(t, types.LengthStandard, analyzer.lastLetter.Length)

	rec = do(t, h, http.MethodPost, "/summary", types.SummaryInput{ExistingExperience: "10 years"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary types.SummaryOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "Seasoned engineer", summary.Summary)
}

func TestNormalizeEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeAnalyzer{}, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/normalize", NormalizeRequest{ResumeData: map[string]string{
		"rms_contact_fullName":      "Jane Doe",
		"rms_contact_email":         "jane@example.com",
		"rms_experience_count":      "1",
		"rms_experience_0_company":  "Acme",
		"rms_experience_0_position": "Engineer",
	}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp NormalizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jane@example.com", resp.Record.Contact.Email)
	assert.NotNil(t, resp.Record.Awards)
	assert.Contains(t, resp.Text, "jane@example.com")
	assert.Equal(t, "jane@example.com", resp.Fields["rms_contact_email"])
}

func TestInspectEndpoint(t *testing.T) {
	inspector := &fakeInspector{}
	h := newTestServer(t, &fakeAnalyzer{}, func(_ *ServerConfig, d *Dependencies) { d.Inspector = inspector }).Handler(nil)

	t.Run("json base64", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/inspect", InspectRequest{
			FileName: "resume.txt",
			Content:  base64.StdEncoding.EncodeToString([]byte("Jane Doe")),
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "resume.txt", inspector.gotName)
		assert.Equal(t, []byte("Jane Doe"), inspector.gotData)
	})

	t.Run("bad base64", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/inspect", InspectRequest{FileName: "r.txt", Content: "%%%"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Error)
	})

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "cv.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("plain resume"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/inspect", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "cv.txt", inspector.gotName)
		assert.Equal(t, []byte("plain resume"), inspector.gotData)
	})
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{}, func(c *ServerConfig, _ *Dependencies) {
		c.APIKeys = []string{"secret-key-123", ""}
	})
	h := s.Handler(nil)

	tests := []struct {
		name     string
		headers  map[string]string
		wantCode int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/summary", types.SummaryInput{ExistingExperience: "x"}, tt.headers)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	// health stays open
	rec := do(t, h, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.SetAPIKeys([]string{"rotated"})
	rec = do(t, h, http.MethodPost, "/summary", types.SummaryInput{ExistingExperience: "x"}, map[string]string{"X-API-Key": "secret-key-123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/summary", types.SummaryInput{ExistingExperience: "x"}, map[string]string{"X-API-Key": "rotated"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, &fakeAnalyzer{}, func(c *ServerConfig, _ *Dependencies) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
	}).Handler(nil)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := do(t, h, http.MethodPost, "/summary", types.SummaryInput{ExistingExperience: "x"}, nil)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client has its own bucket
	rec := do(t, h, http.MethodPost, "/summary", types.SummaryInput{ExistingExperience: "x"}, map[string]string{"X-Forwarded-For": "203.0.113.9"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	h := newTestServer(t, &fakeAnalyzer{}, func(c *ServerConfig, _ *Dependencies) { c.MaxRequestSize = 32 }).Handler(nil)

	rec := do(t, h, http.MethodPost, "/summary", types.SummaryInput{ExistingExperience: strings.Repeat("x", 100)}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "too large")
}

func TestRequestIDPropagation(t *testing.T) {
	h := newTestServer(t, &fakeAnalyzer{}, nil).Handler(nil)
	rec := do(t, h, http.MethodGet, "/stats", nil, map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		models     ModelHealth
		wantCode   int
		wantStatus string
	}{
		{"no models", nil, http.StatusOK, "healthy"},
		{"all available", fakeModels{available: true}, http.StatusOK, "healthy"},
		{"one down", fakeModels{available: false}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeAnalyzer{}, func(_ *ServerConfig, d *Dependencies) { d.Models = tt.models }).Handler(nil)
			rec := do(t, h, http.MethodGet, "/health", nil, nil)
			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			if tt.models != nil {
				assert.Contains(t, body, "circuit_breakers")
				assert.Contains(t, body["ai_models"], string(config.OpAssessFit))
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &fakeAnalyzer{}, nil).Handler(nil)
	rec := do(t, h, http.MethodGet, "/analyze", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first valid", map[string]string{"X-Forwarded-For": "bogus, 198.51.100.2, 10.0.0.1"}, "10.0.0.9:1234", "198.51.100.2"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.3"}, "10.0.0.9:1234", "198.51.100.3"},
		{"remote addr", nil, "10.0.0.9:1234", "10.0.0.9"},
		{"remote without port", nil, "10.0.0.9", "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
