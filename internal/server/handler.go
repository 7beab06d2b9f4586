package server

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"net/http"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
	"resumeforge/internal/normalizer"
	"resumeforge/internal/observability"
	"resumeforge/internal/pipeline"
	"resumeforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const multipartMemory = 8 << 20

// NormalizeResponse is the body returned by /normalize
type NormalizeResponse struct {
	Record types.ResumeRecord `json:"record"`
	Text   string             `json:"text"`
	Fields map[string]string  `json:"fields"`
}

// analyzeHandler serves POST /analyze
func (s *Server) analyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumeforge.api").Start(r.Context(), "api.analyze")
		defer span.End()

		var req types.AnalysisRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.fail(ctx, w, span, err)
			return
		}
		if err := pipeline.ValidateAnalysisRequest(req); err != nil {
			s.fail(ctx, w, span, err)
			return
		}

		span.SetAttributes(
			attribute.String("operation", "analyze"),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.Int("request.resume_length", resumeChars(req)),
		)

		metrics := om.GetMetrics()
		var result types.AnalysisResult
		err := metrics.TrackAIOperationWithTokens(ctx, "analyze", func(ctx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := s.deps.Analyzer.Analyze(ctx, req)
			result = out
			return usage, err
		})
		if err != nil {
			metrics.RecordBusinessMetric(ctx, observability.MetricAnalysis, false, errorTypeAttr(err))
			s.fail(ctx, w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, observability.MetricAnalysis, true)
		metrics.RecordATSScore(ctx, result.ATSScore, resumeChars(req))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("analysis.id", result.AnalysisID),
			attribute.Int("ats.score", result.ATSScore),
			attribute.Int("keywords.missing", len(result.MissingKeywords)),
		)

		writeJSON(w, http.StatusOK, result)
	}
}

// coverLetterHandler serves POST /cover-letter
func (s *Server) coverLetterHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumeforge.api").Start(r.Context(), "api.cover_letter")
		defer span.End()

		var input types.CoverLetterInput
		if err := parseJSONRequest(r, &input); err != nil {
			s.fail(ctx, w, span, err)
			return
		}
		if err := pipeline.ValidateCoverLetterInput(&input); err != nil {
			s.fail(ctx, w, span, err)
			return
		}

		span.SetAttributes(
			attribute.String("operation", "cover_letter"),
			attribute.String("letter.tone", string(input.Tone)),
			attribute.String("letter.length", string(input.Length)),
		)

		metrics := om.GetMetrics()
		var result types.CoverLetterOutput
		err := metrics.TrackAIOperationWithTokens(ctx, "coverLetter", func(ctx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := s.deps.Analyzer.GenerateCoverLetter(ctx, input)
			result = out
			return usage, err
		})
		if err != nil {
			metrics.RecordBusinessMetric(ctx, observability.MetricCoverLetter, false, errorTypeAttr(err))
			s.fail(ctx, w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, observability.MetricCoverLetter, true,
			attribute.String("tone", string(result.Metadata.Tone)))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("letter.word_count", result.Metadata.WordCount),
			attribute.Int("letter.strength", result.Metadata.StrengthScore),
		)

		writeJSON(w, http.StatusOK, result)
	}
}

// summaryHandler serves POST /summary
func (s *Server) summaryHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumeforge.api").Start(r.Context(), "api.summary")
		defer span.End()

		var input types.SummaryInput
		if err := parseJSONRequest(r, &input); err != nil {
			s.fail(ctx, w, span, err)
			return
		}
		if err := pipeline.ValidateSummaryInput(input); err != nil {
			s.fail(ctx, w, span, err)
			return
		}

		metrics := om.GetMetrics()
		var result types.SummaryOutput
		err := metrics.TrackAIOperationWithTokens(ctx, "summary", func(ctx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := s.deps.Analyzer.GenerateSummary(ctx, input)
			result = out
			return usage, err
		})
		if err != nil {
			metrics.RecordBusinessMetric(ctx, observability.MetricSummary, false, errorTypeAttr(err))
			s.fail(ctx, w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, observability.MetricSummary, true)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("summary.alternatives", len(result.AlternativeVersions)),
		)

		writeJSON(w, http.StatusOK, result)
	}
}

// normalizeHandler serves POST /normalize. It never calls the model.
func (s *Server) normalizeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumeforge.api").Start(r.Context(), "api.normalize")
		defer span.End()

		var req NormalizeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.fail(ctx, w, span, err)
			return
		}
		src, err := req.source()
		if err != nil {
			s.fail(ctx, w, span, err)
			return
		}

		record := s.normalizer.Normalize(src)
		prefix := req.Prefix
		if prefix == "" {
			prefix = normalizer.DefaultPrefix
		}

		om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricNormalization, true)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("resume.experience", len(record.Experience)),
			attribute.Int("resume.education", len(record.Education)),
		)

		writeJSON(w, http.StatusOK, NormalizeResponse{
			Record: record,
			Text:   normalizer.RenderText(record),
			Fields: normalizer.Flatten(record, prefix),
		})
	}
}

// source picks the single resume representation the request carries
func (req NormalizeRequest) source() (normalizer.ResumeSource, error) {
	var sources []normalizer.ResumeSource
	if strings.TrimSpace(req.ResumeText) != "" {
		sources = append(sources, normalizer.PlainText{Text: req.ResumeText})
	}
	if len(req.ResumeData) > 0 {
		sources = append(sources, normalizer.FlatIndexed{Fields: req.ResumeData, Prefix: req.Prefix})
	}
	if req.ResumeRecord != nil {
		sources = append(sources, normalizer.Structured{Record: *req.ResumeRecord})
	}

	if len(sources) != 1 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"exactly one of resumeText, resumeData or resumeRecord is required", nil)
	}
	return sources[0], nil
}

// inspectHandler serves POST /inspect with either a multipart "file" field or a JSON body
func (s *Server) inspectHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumeforge.api").Start(r.Context(), "api.inspect")
		defer span.End()

		if s.deps.Inspector == nil {
			writeErrorResponse(w, "NOT_CONFIGURED", "document inspection is not available", http.StatusNotImplemented)
			return
		}

		name, data, err := readUpload(r)
		if err != nil {
			s.fail(ctx, w, span, err)
			return
		}
		span.SetAttributes(
			attribute.String("document.name", name),
			attribute.Int("document.size", len(data)),
		)

		metrics := om.GetMetrics()
		report, err := s.deps.Inspector.Inspect(ctx, name, data)
		if err != nil {
			metrics.RecordBusinessMetric(ctx, observability.MetricInspection, false, errorTypeAttr(err))
			s.fail(ctx, w, span, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, observability.MetricInspection, true,
			attribute.String("content_type", report.ContentType))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("document.pages", report.Pages),
			attribute.Int("document.warnings", len(report.Warnings)),
		)

		writeJSON(w, http.StatusOK, report)
	}
}

// readUpload returns the uploaded file name and bytes from a multipart or JSON request
func readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req InspectRequest
		if err := parseJSONRequest(r, &req); err != nil {
			return "", nil, err
		}
		if strings.TrimSpace(req.FileName) == "" {
			return "", nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "fileName is required", nil)
		}
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			return "", nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "content must be base64 encoded", err)
		}
		return req.FileName, data, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, bodyError(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "multipart field \"file\" is required", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, bodyError(err)
	}
	return header.Filename, data, nil
}

// fail records err on the span and writes the mapped error response
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(errorTypeAttr(err))

	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "request_id", requestIDFrom(ctx), "status", status)
	} else {
		s.Logger.Debug("Request rejected", "request_id", requestIDFrom(ctx), "error", err.Error())
	}
	writeAppError(w, err)
}

func errorTypeAttr(err error) attribute.KeyValue {
	if appErr, ok := errors.AsAppError(err); ok {
		return attribute.String("error.type", string(appErr.Type))
	}
	return attribute.String("error.type", string(errors.ErrorTypeInternal))
}

// resumeChars is the size of whichever resume representation the request carries
func resumeChars(req types.AnalysisRequest) int {
	switch {
	case req.ResumeText != "":
		return len(req.ResumeText)
	case len(req.ResumeData) > 0:
		n := 0
		for _, v := range req.ResumeData {
			n += len(v)
		}
		return n
	case req.ResumeRecord != nil:
		return len(normalizer.RenderText(*req.ResumeRecord))
	}
	return 0
}
