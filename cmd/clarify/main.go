package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pep299/clarify/internal/application"
	"github.com/pep299/clarify/internal/config"
	"github.com/pep299/clarify/internal/document"
	"github.com/pep299/clarify/internal/export"
	"github.com/pep299/clarify/internal/logger"
	"github.com/pep299/clarify/internal/pipeline"
	"github.com/pep299/clarify/internal/watcher"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

type options struct {
	file   string
	text   string
	lang   string
	terms  bool
	format string
	out    string
	watch  string
}

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		opts        options
	)
	flag.StringVar(&opts.file, "file", "", "PDF or DOCX file to simplify")
	flag.StringVar(&opts.text, "text", "", "Text to simplify (- reads stdin)")
	flag.StringVar(&opts.lang, "lang", "en", "Output language code")
	flag.BoolVar(&opts.terms, "terms", false, "Explain key terms")
	flag.StringVar(&opts.format, "format", "", "Export format: pdf or docx")
	flag.StringVar(&opts.out, "out", "", "Export file or directory (default: current directory)")
	flag.StringVar(&opts.watch, "watch", "", "Watch a directory and export every new document")
	flag.Parse()

	if *showHelp {
		fmt.Printf("Clarify CLI\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Clarify CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	if err := run(opts); err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
}

func run(opts options) error {
	pipeOpts, err := opts.pipelineOptions()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger := logger.NewWithWriter(cfg.LogLevel, os.Stderr)
	app, err := application.New(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.watch != "" {
		return watch(ctx, app, cfg, opts, pipeOpts)
	}

	in, err := opts.input(os.Stdin)
	if err != nil {
		return err
	}

	result, err := app.Pipeline.Run(ctx, in, pipeOpts)
	if err != nil {
		return err
	}

	if result.Export != nil {
		path := exportPath(opts.out, result.Export.Filename)
		if err := os.WriteFile(path, result.Export.Data, 0644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", path)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// watch exports every document dropped into opts.watch until interrupted
func watch(ctx context.Context, app *application.Application, cfg *config.Config, opts options, pipeOpts pipeline.Options) error {
	outDir := opts.out
	if outDir == "" {
		outDir = cfg.OutputDir
	}

	handler := watcher.ExportHandler(app.Pipeline, pipeOpts, outDir, app.Logger)
	w, err := watcher.New(opts.watch, handler, app.Logger, cfg.MaxConcurrent)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (o options) pipelineOptions() (pipeline.Options, error) {
	out := pipeline.Options{Language: o.lang, ExplainTerms: o.terms}
	if o.format != "" {
		format, err := export.ParseFormat(o.format)
		if err != nil {
			return out, err
		}
		out.Format = format
	}
	return out, nil
}

// input builds the pipeline input from -file or -text
func (o options) input(stdin io.Reader) (pipeline.Input, error) {
	switch {
	case o.file != "" && o.text != "":
		return pipeline.Input{}, errors.New("use either -file or -text, not both")
	case o.file != "":
		upload, err := document.FromFile(o.file)
		if err != nil {
			return pipeline.Input{}, err
		}
		return pipeline.Input{Upload: upload}, nil
	case o.text == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("reading stdin: %w", err)
		}
		return pipeline.Input{Text: string(data)}, nil
	case o.text != "":
		return pipeline.Input{Text: o.text}, nil
	}
	return pipeline.Input{}, errors.New("one of -file, -text or -watch is required")
}

// exportPath resolves -out against the export's default name. An existing
// directory or an empty value keeps the default name.
func exportPath(out, name string) string {
	if out == "" {
		return name
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}
