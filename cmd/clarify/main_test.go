package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pep299/clarify/internal/export"
)

func TestMainFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "Help flag",
			args:     []string{"-help"},
			expected: "Clarify CLI",
		},
		{
			name:     "Version flag",
			args:     []string{"-version"},
			expected: "Version: dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if os.Getenv("TEST_MAIN_SUBPROCESS") == "1" {
				os.Args = append([]string{"cmd"}, tt.args...)
				main()
				return
			}

			cmd := exec.Command(os.Args[0], "-test.run=TestMainFlags/"+strings.ReplaceAll(tt.name, " ", "_"))
			cmd.Env = append(os.Environ(), "TEST_MAIN_SUBPROCESS=1")
			output, err := cmd.Output()
			if err != nil {
				if exitError, ok := err.(*exec.ExitError); ok && exitError.ExitCode() != 0 {
					t.Errorf("Expected exit code 0, got %d", exitError.ExitCode())
				}
			}

			if !strings.Contains(string(output), tt.expected) {
				t.Errorf("Expected output to contain %q, got %q", tt.expected, string(output))
			}
		})
	}
}

func TestOptionsInput(t *testing.T) {
	in, err := options{text: "Plants grow."}.input(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if in.Text != "Plants grow." || in.Upload != nil {
		t.Errorf("Unexpected input %+v", in)
	}

	in, err = options{text: "-"}.input(strings.NewReader("from stdin"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if in.Text != "from stdin" {
		t.Errorf("Expected stdin text, got %q", in.Text)
	}

	if _, err := (options{}).input(nil); err == nil {
		t.Error("Expected error without input")
	}
	if _, err := (options{file: "a.pdf", text: "b"}).input(nil); err == nil {
		t.Error("Expected error with both -file and -text")
	}
}

func TestPipelineOptions(t *testing.T) {
	opts, err := options{lang: "es", terms: true, format: "DOCX"}.pipelineOptions()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.Language != "es" || !opts.ExplainTerms || opts.Format != export.FormatDOCX {
		t.Errorf("Unexpected options %+v", opts)
	}

	if _, err := (options{format: "odt"}).pipelineOptions(); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestExportPath(t *testing.T) {
	dir := t.TempDir()

	if got := exportPath("", "simplified-content-english.pdf"); got != "simplified-content-english.pdf" {
		t.Errorf("Expected default name, got %q", got)
	}
	if got := exportPath(dir, "simplified-content-english.pdf"); got != filepath.Join(dir, "simplified-content-english.pdf") {
		t.Errorf("Expected file inside directory, got %q", got)
	}
	file := filepath.Join(dir, "mine.pdf")
	if got := exportPath(file, "simplified-content-english.pdf"); got != file {
		t.Errorf("Expected explicit file, got %q", got)
	}
}
