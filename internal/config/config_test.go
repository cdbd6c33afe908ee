package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/jsyml/jsyml/internal/format"
	"github.com/jsyml/jsyml/internal/indent"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Indent != indent.DefaultSpec() {
		t.Errorf("Indent = %+v, want %+v", s.Indent, indent.DefaultSpec())
	}
	if s.Prune || s.KeepGoing || s.Verbose || s.NoColor {
		t.Errorf("unexpected boolean defaults: %+v", s)
	}
	if s.Jobs != 1 {
		t.Errorf("Jobs = %d, want 1", s.Jobs)
	}
	if s.Debounce != 200*time.Millisecond {
		t.Errorf("Debounce = %s", s.Debounce)
	}
	if s.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want none", s.ConfigFile)
	}
}

func TestLoad_ConfigFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "indent: 4\nindent-style: tab\nprune: true\njobs: 3\n"
	if err := os.WriteFile(filepath.Join(dir, ".jsyml.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	s, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := indent.Spec{Width: 4, Style: format.Tab}
	if s.Indent != want {
		t.Errorf("Indent = %+v, want %+v", s.Indent, want)
	}
	if !s.Prune || s.Jobs != 3 {
		t.Errorf("settings = %+v", s)
	}
	if filepath.Base(s.ConfigFile) != ".jsyml.yaml" {
		t.Errorf("ConfigFile = %q", s.ConfigFile)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(file, []byte("indent: 4\nkeep-going: true\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("JSYML_INDENT", "6")
	t.Setenv("JSYML_INDENT_STYLE", "tab")

	v := New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int(KeyIndent, 2, "")
	if err := v.BindPFlag(KeyIndent, flags.Lookup(KeyIndent)); err != nil {
		t.Fatalf("BindPFlag failed: %v", err)
	}

	// Env beats the config file while the flag is unset.
	s, err := Load(v, file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Indent.Width != 6 || s.Indent.Style != format.Tab || !s.KeepGoing {
		t.Errorf("settings = %+v", s)
	}

	// An explicit flag beats everything.
	if err := flags.Parse([]string{"--indent", "8"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s, err = Load(v, file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Indent.Width != 8 {
		t.Errorf("Indent.Width = %d, want 8", s.Indent.Width)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}

	t.Setenv("JSYML_INDENT_STYLE", "dots")
	if _, err := Load(New(), ""); err == nil {
		t.Error("expected error for invalid indent style")
	}

	t.Setenv("JSYML_INDENT_STYLE", "space")
	t.Setenv("JSYML_INDENT", "0")
	if _, err := Load(New(), ""); err == nil {
		t.Error("expected error for zero indent")
	}

	t.Setenv("JSYML_INDENT", "2")
	t.Setenv("JSYML_JOBS", "0")
	if _, err := Load(New(), ""); err == nil {
		t.Error("expected error for zero jobs")
	}
}
