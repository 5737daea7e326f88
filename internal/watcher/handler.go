package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pep299/clarify/internal/document"
	"github.com/pep299/clarify/internal/export"
	"github.com/pep299/clarify/internal/logger"
	"github.com/pep299/clarify/internal/pipeline"
)

// ExportHandler runs each file through p and writes the export into outputDir
// as <source name>-<export name>. A missing format defaults to PDF.
func ExportHandler(p *pipeline.Pipeline, opts pipeline.Options, outputDir string, log logger.Logger) EventHandler {
	if opts.Format == "" {
		opts.Format = export.FormatPDF
	}
	if log == nil {
		log = logger.Nop()
	}

	return func(ctx context.Context, filePath string) error {
		upload, err := document.FromFile(filePath)
		if err != nil {
			return err
		}

		result, err := p.Run(ctx, pipeline.Input{Upload: upload}, opts)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}

		base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		out := filepath.Join(outputDir, base+"-"+result.Export.Filename)
		if err := os.WriteFile(out, result.Export.Data, 0644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		log.Info(ctx, "Exported %s to %s", filePath, out)
		return nil
	}
}
