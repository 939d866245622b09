package extract

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/microcosm-cc/bluemonday"
)

const DefaultMaxFileSizeMB = 50

// SourceExtractionError reports an input that could not be turned into text.
type SourceExtractionError struct {
	Path string
	Err  error
}

func (e *SourceExtractionError) Error() string {
	return fmt.Sprintf("unable to extract text from %s: %v", e.Path, e.Err)
}

func (e *SourceExtractionError) Unwrap() error {
	return e.Err
}

// Reader fetches the raw bytes behind a path.
type Reader interface {
	Size(ctx context.Context, path string) (int64, error)

	Read(ctx context.Context, path string) ([]byte, error)
}

type Extractor struct {
	reader  Reader
	maxSize int64
	policy  *bluemonday.Policy
}

func NewExtractor(reader Reader, maxSizeMB int) *Extractor {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxFileSizeMB
	}
	return &Extractor{
		reader:  reader,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		policy:  bluemonday.StrictPolicy(),
	}
}

var supportedFormats = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".pdf":  true,
	".html": true,
	".htm":  true,
}

func SupportedFormat(path string) bool {
	return supportedFormats[strings.ToLower(filepath.Ext(path))]
}

// Extract reads path and returns its text content. Every failure is a
// *SourceExtractionError.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormats[ext] {
		return "", &SourceExtractionError{Path: path, Err: fmt.Errorf("unsupported file type '%s'", ext)}
	}

	size, err := e.reader.Size(ctx, path)
	if err != nil {
		return "", &SourceExtractionError{Path: path, Err: err}
	}
	if err := e.checkSize(size); err != nil {
		return "", &SourceExtractionError{Path: path, Err: err}
	}

	content, err := e.reader.Read(ctx, path)
	if err != nil {
		return "", &SourceExtractionError{Path: path, Err: err}
	}
	// the object may have grown since it was sized
	if err := e.checkSize(int64(len(content))); err != nil {
		return "", &SourceExtractionError{Path: path, Err: err}
	}

	switch ext {
	case ".pdf":
		text, err := pdfText(content)
		if err != nil {
			return "", &SourceExtractionError{Path: path, Err: err}
		}
		return text, nil
	case ".html", ".htm":
		return html.UnescapeString(e.policy.Sanitize(string(content))), nil
	default:
		return string(content), nil
	}
}

func (e *Extractor) checkSize(size int64) error {
	if size > e.maxSize {
		return fmt.Errorf("file size %d exceeds limit %d bytes", size, e.maxSize)
	}
	return nil
}

func pdfText(content []byte) (string, error) {
	pdf, err := fitz.NewFromMemory(content)
	if err != nil {
		return "", fmt.Errorf("error opening pdf: %w", err)
	}
	defer pdf.Close()

	pages := make([]string, 0, pdf.NumPage())
	for i := 0; i < pdf.NumPage(); i++ {
		pageText, err := pdf.Text(i)
		if err != nil {
			return "", fmt.Errorf("error reading pdf page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}

	slog.Debug("extracted pdf", "pages", len(pages))
	return strings.Join(pages, "\n\n"), nil
}
