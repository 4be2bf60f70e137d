// Package extraction turns position description documents into clean text.
// Plain text and markdown files are read directly; PDF and Word documents
// are transcribed by a vision-capable model.
package extraction

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/prompts"
)

// Source extracts the text of a document identified by path.
type Source interface {
	Extract(ctx context.Context, path string) (string, error)
}

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

// Extractor routes documents to the right extraction strategy by extension.
// The transcriber client handles binary formats; when nil, only plain text
// and markdown are supported.
type Extractor struct {
	transcriber llm.Client
}

// NewExtractor creates an Extractor. transcriber may be nil to disable
// PDF and Word support.
func NewExtractor(transcriber llm.Client) *Extractor {
	return &Extractor{transcriber: transcriber}
}

// Extract returns the cleaned text content of the document at path.
// Returns *ExtractionError when the document cannot be read, has an
// unsupported format, or yields no text.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var text string
	switch ext {
	case ".txt", ".md", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &ExtractionError{Path: path, Message: "could not read file", Cause: err}
		}
		text = CleanText(string(data))

	case ".pdf", ".docx", ".doc":
		if e.transcriber == nil {
			return "", &ExtractionError{
				Path:    path,
				Message: "binary document support requires a Gemini transcription client",
			}
		}
		transcribed, err := e.transcribe(ctx, path, mimeTypes[ext])
		if err != nil {
			return "", err
		}
		text = CleanText(transcribed)

	default:
		return "", &ExtractionError{
			Path:    path,
			Message: "unsupported file type " + ext + " (supported: .txt, .md, .pdf, .docx)",
		}
	}

	if text == "" {
		return "", &ExtractionError{Path: path, Message: "document contains no extractable text"}
	}
	return text, nil
}

func (e *Extractor) transcribe(ctx context.Context, path, mimeType string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Message: "could not read file", Cause: err}
	}

	prompt := prompts.MustGet("extraction.json", "transcribe-document")
	text, _, err := e.transcriber.Generate(ctx, llm.GenerateRequest{
		Prompt:      prompt,
		Tier:        llm.TierLite,
		Temperature: 0,
		Media:       []llm.Blob{{MIMEType: mimeType, Data: data}},
	})
	if err != nil {
		return "", &ExtractionError{Path: path, Message: "model transcription failed", Cause: err}
	}
	return text, nil
}
