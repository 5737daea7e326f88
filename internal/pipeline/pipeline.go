// Package pipeline runs the full flow from source text or an uploaded file to
// simplified, translated and exported content.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pep299/clarify/internal/content"
	"github.com/pep299/clarify/internal/document"
	"github.com/pep299/clarify/internal/export"
	"github.com/pep299/clarify/internal/guard"
	"github.com/pep299/clarify/internal/logger"
)

// Assistant is the model-backed half of the pipeline.
type Assistant interface {
	Simplify(ctx context.Context, text string) (*content.SimplifiedContent, error)
	Translate(ctx context.Context, c *content.SimplifiedContent, lang string) (*content.SimplifiedContent, error)
	ExplainTerms(ctx context.Context, c *content.SimplifiedContent, originalText, lang string) ([]content.KeyTerm, error)
}

// Input is either raw text or an uploaded document. Upload wins when both are set.
type Input struct {
	Text   string
	Upload *document.Upload
}

// Options select the optional stages.
type Options struct {
	Language     string
	ExplainTerms bool
	Format       export.Format
}

// Export is a rendered file.
type Export struct {
	Filename string
	MIME     string
	Data     []byte
}

// Result holds every stage's output.
type Result struct {
	SourceText string                     `json:"sourceText"`
	Language   string                     `json:"language"`
	Simplified *content.SimplifiedContent `json:"simplified"`
	Translated *content.SimplifiedContent `json:"translated,omitempty"`
	KeyTerms   []content.KeyTerm          `json:"keyTerms,omitempty"`
	Export     *Export                    `json:"-"`
}

// Display returns the content a reader should see: the translation when
// there is one, otherwise the simplification.
func (r *Result) Display() *content.SimplifiedContent {
	if r.Translated != nil {
		return r.Translated
	}
	return r.Simplified
}

// Pipeline wires the assistant to document extraction and export.
type Pipeline struct {
	assistant Assistant
	exporter  *export.Exporter
	logger    logger.Logger
}

// New creates a Pipeline.
func New(assistant Assistant, exporter *export.Exporter, log logger.Logger) *Pipeline {
	if exporter == nil {
		exporter = export.New("")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{assistant: assistant, exporter: exporter, logger: log}
}

// Run executes the stages in order, stopping at the first failure.
func (p *Pipeline) Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	start := time.Now()

	lang := opts.Language
	if lang == "" {
		lang = content.English
	}
	if lang != content.English && !content.IsTranslationTarget(lang) {
		return nil, &guard.ValidationError{Message: "Unsupported language"}
	}

	text := in.Text
	if in.Upload != nil {
		extracted, err := document.Extract(ctx, in.Upload)
		if err != nil {
			return nil, err
		}
		p.logger.Debug(ctx, "extracted %d bytes from %s", len(extracted), in.Upload.Name)
		text = extracted
	}

	result := &Result{SourceText: text, Language: lang}

	simplified, err := p.assistant.Simplify(ctx, text)
	if err != nil {
		return nil, err
	}
	result.Simplified = simplified

	if lang != content.English {
		translated, err := p.assistant.Translate(ctx, simplified, lang)
		if err != nil {
			return nil, err
		}
		result.Translated = translated
	}

	if opts.ExplainTerms {
		terms, err := p.assistant.ExplainTerms(ctx, result.Display(), text, lang)
		if err != nil {
			return nil, err
		}
		result.KeyTerms = terms
	}

	if opts.Format != "" {
		doc := export.Document{
			Content:  *result.Display(),
			KeyTerms: result.KeyTerms,
			Language: lang,
		}
		data, err := p.exporter.Render(opts.Format, doc)
		if err != nil {
			return nil, fmt.Errorf("exporting %s: %w", opts.Format, err)
		}
		result.Export = &Export{
			Filename: doc.Filename(opts.Format),
			MIME:     opts.Format.MIME(),
			Data:     data,
		}
	}

	p.logger.Info(ctx, "pipeline finished: lang=%s terms=%d export=%q in %v",
		lang, len(result.KeyTerms), opts.Format, time.Since(start))
	return result, nil
}
