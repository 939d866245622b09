package api

import (
	"errors"
	"log/slog"
	"net/http"
	"pii-redactor/internal/core"
	"pii-redactor/internal/core/types"
	"pii-redactor/pkg/api"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type RedactionService struct {
	redactor     *core.Redactor
	classifier   string
	maxBodyBytes int64
}

func NewRedactionService(redactor *core.Redactor, classifier string, maxBodyBytes int64) *RedactionService {
	return &RedactionService{redactor: redactor, classifier: classifier, maxBodyBytes: maxBodyBytes}
}

func (s *RedactionService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Get("/categories", RestHandler(s.Categories))
	r.Route("/redact", func(r chi.Router) {
		r.Post("/", RestHandler(s.RedactText))
		r.Get("/", RestHandler(s.RedactQuery))
	})
}

func (s *RedactionService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{Status: "ok", Classifier: s.classifier}, nil
}

func (s *RedactionService) Categories(r *http.Request) (any, error) {
	return api.CategoriesResponse{
		EntityCategories: categoryNames(types.EntityCategories),
		NumberCategories: categoryNames(types.NumberCategories),
		RedactionToken:   core.RedactionToken,
	}, nil
}

func (s *RedactionService) RedactText(r *http.Request) (any, error) {
	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, s.maxBodyBytes)
	}

	req, err := ParseRequest[api.RedactRequest](r)
	if err != nil {
		return nil, err
	}

	var opts []core.Option
	if req.EntityCategories != nil {
		opts = append(opts, core.WithEntityCategories(req.EntityCategories...))
	}
	if req.NumberCategories != nil {
		opts = append(opts, core.WithNumberCategories(req.NumberCategories...))
	}
	if req.BareSSN {
		opts = append(opts, core.WithBareSSN())
	}

	return s.redact(r, req.Text, opts)
}

// RedactQuery serves GET /redact. A category parameter that is present but
// empty disables its group, so ?entity= redacts no entity categories.
func (s *RedactionService) RedactQuery(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.RedactQuery](r)
	if err != nil {
		return nil, err
	}

	var opts []core.Option
	if r.Form.Has("entity") {
		opts = append(opts, core.WithEntityCategories(splitList(params.Entity)...))
	}
	if r.Form.Has("number") {
		opts = append(opts, core.WithNumberCategories(splitList(params.Number)...))
	}
	if params.BareSSN {
		opts = append(opts, core.WithBareSSN())
	}

	return s.redact(r, params.Text, opts)
}

func (s *RedactionService) redact(r *http.Request, text string, opts []core.Option) (any, error) {
	requestId := uuid.New()

	result, err := s.redactor.Redact(r.Context(), text, opts...)
	if err != nil {
		var cfgErr *core.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, CodedError(http.StatusBadRequest, err)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "error redacting text: %w", err)
	}

	counts := make(map[string]int, len(result.Counts))
	for category, n := range result.Counts {
		counts[string(category)] = n
	}

	slog.Info("redaction complete", "request_id", requestId, "spans", len(result.Spans))

	return api.RedactResponse{RequestId: requestId, Text: result.Text, Counts: counts}, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	names := make([]string, 0, len(values))
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func categoryNames(categories []types.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return names
}
