package core

import (
	"context"
	"fmt"
	"log/slog"
	"pii-redactor/internal/core/types"
	"pii-redactor/internal/core/utils"
)

// Source turns an input path into raw text.
type Source interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Sink persists redacted text at an output path.
type Sink interface {
	Write(ctx context.Context, path string, text string) error
}

type Redactor struct {
	patterns   *PatternMatchers
	classifier EntityClassifier
	source     Source
	sink       Sink
}

// NewRedactor builds a Redactor. A nil classifier means pattern-only redaction;
// source and sink are only needed by the file entry points.
func NewRedactor(classifier EntityClassifier, source Source, sink Sink) (*Redactor, error) {
	patterns, err := NewPatternMatchers()
	if err != nil {
		return nil, fmt.Errorf("error loading pattern recognizers: %w", err)
	}
	if classifier == nil {
		classifier = NoopClassifier{}
	}
	return &Redactor{
		patterns:   patterns,
		classifier: classifier,
		source:     source,
		sink:       sink,
	}, nil
}

type options struct {
	entities    []string
	entitiesSet bool
	numbers     []string
	numbersSet  bool
	bareSSN     bool
}

type Option func(*options)

// WithEntityCategories limits entity redaction to the named categories. With no
// names, no entity category is redacted.
func WithEntityCategories(names ...string) Option {
	return func(o *options) {
		o.entities = names
		o.entitiesSet = true
	}
}

// WithNumberCategories limits pattern redaction to the named categories. With no
// names, no number category is redacted.
func WithNumberCategories(names ...string) Option {
	return func(o *options) {
		o.numbers = names
		o.numbersSet = true
	}
}

// WithBareSSN also matches social security numbers written as nine digits with
// no dashes.
func WithBareSSN() Option {
	return func(o *options) {
		o.bareSSN = true
	}
}

func NewCategoryConfig(opts ...Option) (CategoryConfig, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := DefaultCategoryConfig()
	cfg.BareSSN = o.bareSSN

	if o.entitiesSet {
		set, err := parseGroup(EntityGroup, o.entities)
		if err != nil {
			return CategoryConfig{}, err
		}
		cfg.Entities = set
	}
	if o.numbersSet {
		set, err := parseGroup(NumberGroup, o.numbers)
		if err != nil {
			return CategoryConfig{}, err
		}
		cfg.Numbers = set
	}
	return cfg, nil
}

// Clean returns text with every enabled PII occurrence replaced by RedactionToken.
func (r *Redactor) Clean(ctx context.Context, text string, opts ...Option) (string, error) {
	result, err := r.Redact(ctx, text, opts...)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func (r *Redactor) Redact(ctx context.Context, text string, opts ...Option) (RedactionResult, error) {
	cfg, err := NewCategoryConfig(opts...)
	if err != nil {
		return RedactionResult{}, err
	}
	return r.redact(ctx, text, cfg), nil
}

func (r *Redactor) redact(ctx context.Context, text string, cfg CategoryConfig) RedactionResult {
	if text == "" {
		return Rewrite(text, nil)
	}

	pool := r.patterns.MatchAll(text, cfg)
	if cfg.HasEntities() {
		pool = append(pool, r.entitySpans(ctx, text)...)
	}

	spans := ReconcileSpans(FilterSpans(pool, cfg))
	slog.Debug("PII spans found", "candidates", len(pool), "redacted", len(spans))

	return Rewrite(text, spans)
}

// entitySpans classifies the text sentence by sentence. Any classifier failure
// discards all entity spans for the call so the result is plain pattern-only
// redaction rather than a partial mix.
func (r *Redactor) entitySpans(ctx context.Context, text string) []types.Span {
	var spans []types.Span
	for _, sentence := range SplitSentences(Tokenize(text)) {
		labels, err := r.classifier.Classify(ctx, sentence)
		if err == nil && len(labels) != len(sentence) {
			err = fmt.Errorf("classifier returned %d labels for %d tokens", len(labels), len(sentence))
		}
		if err != nil {
			slog.Warn("entity classifier unavailable, using pattern matches only", "error", err)
			return nil
		}
		spans = append(spans, EntitySpans(sentence, labels)...)
	}
	return spans
}

// CleanFile extracts inputPath, redacts it and writes the result to
// outputPath. Extraction errors are returned unmodified.
func (r *Redactor) CleanFile(ctx context.Context, inputPath, outputPath string, opts ...Option) error {
	cfg, err := NewCategoryConfig(opts...)
	if err != nil {
		return err
	}
	_, err = r.cleanFile(ctx, inputPath, outputPath, cfg)
	return err
}

func (r *Redactor) cleanFile(ctx context.Context, inputPath, outputPath string, cfg CategoryConfig) (RedactionResult, error) {
	if r.source == nil || r.sink == nil {
		return RedactionResult{}, fmt.Errorf("redactor is not configured for file input and output")
	}

	slog.Debug("extracting text", "path", inputPath)
	text, err := r.source.Extract(ctx, inputPath)
	if err != nil {
		return RedactionResult{}, err
	}

	result := r.redact(ctx, text, cfg)

	slog.Debug("writing clean text", "path", outputPath, "spans", len(result.Spans))
	if err := r.sink.Write(ctx, outputPath, result.Text); err != nil {
		return RedactionResult{}, fmt.Errorf("error writing %s: %w", outputPath, err)
	}
	return result, nil
}

type FileJob struct {
	Input  string
	Output string
}

type FileOutcome struct {
	Job    FileJob
	Counts map[types.Category]int
}

// CleanFiles runs CleanFile over jobs on a pool of workers. The returned channel
// yields one result per job and is closed when all jobs are done.
func (r *Redactor) CleanFiles(ctx context.Context, jobs []FileJob, workers int, opts ...Option) (chan utils.CompletedTask[FileOutcome], error) {
	cfg, err := NewCategoryConfig(opts...)
	if err != nil {
		return nil, err
	}

	queue := make(chan FileJob, len(jobs))
	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	completed := make(chan utils.CompletedTask[FileOutcome], len(jobs))

	worker := func(job FileJob) (FileOutcome, error) {
		outcome := FileOutcome{Job: job}
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		result, err := r.cleanFile(ctx, job.Input, job.Output, cfg)
		if err != nil {
			slog.Error("error cleaning file", "input", job.Input, "error", err)
			return outcome, err
		}
		outcome.Counts = result.Counts
		return outcome, nil
	}

	utils.RunInPool(worker, queue, completed, workers)

	return completed, nil
}
