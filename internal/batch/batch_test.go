package batch

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jsyml/jsyml/internal/convert"
	"github.com/jsyml/jsyml/internal/format"
	"github.com/jsyml/jsyml/internal/indent"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestPathFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    format.Format
		wantExt string
		wantErr bool
	}{
		{"a.json", format.JSON, "json", false},
		{"dir/b.yaml", format.YAML, "yaml", false},
		{"c.yml", format.YAML, "yml", false},
		{"d.JSON", "", "JSON", true},
		{"e.txt", "", "txt", true},
		{"noext", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ext, err := PathFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, convert.ErrInvalidExtension) {
				t.Errorf("error %v is not ErrInvalidExtension", err)
			}
			if got != tt.want || ext != tt.wantExt {
				t.Errorf("PathFormat(%q) = (%q, %q), want (%q, %q)", tt.path, got, ext, tt.want, tt.wantExt)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, ext, want string
	}{
		{"a.json", "yaml", "a.yaml"},
		{"dir/b.yml", "json", "dir/b.json"},
		{"dir.v1/c.yaml", ".yml", "dir.v1/c.yml"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.in, tt.ext); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}

func TestConvertFile_EndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "a.json")
	out := filepath.Join(tmpDir, "nested", "out", "a.yaml")
	writeFile(t, in, `{"x":{"y":1}}`)

	opts := DefaultOptions()
	opts.Indent = indent.Spec{Width: 4, Style: format.Space}

	pruned, err := ConvertFile(in, out, opts)
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}
	if pruned {
		t.Error("source pruned without Prune option")
	}

	if got := readFile(t, out); got != "x:\n    y: 1\n" {
		t.Errorf("output = %q, want %q", got, "x:\n    y: 1\n")
	}
	if _, err := os.Stat(in); err != nil {
		t.Errorf("source should still exist: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestConvertFile_Prune(t *testing.T) {
	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "a.yaml")
	out := filepath.Join(tmpDir, "a.json")
	writeFile(t, in, "a: 1\n")

	opts := DefaultOptions()
	opts.Prune = true

	pruned, err := ConvertFile(in, out, opts)
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}
	if !pruned {
		t.Error("expected source to be pruned")
	}
	if _, err := os.Stat(in); !os.IsNotExist(err) {
		t.Error("source still exists after prune")
	}
	if got := readFile(t, out); got != "{\n  \"a\": 1\n}" {
		t.Errorf("output = %q", got)
	}
}

func TestConvertFile_PruneSkipsSamePath(t *testing.T) {
	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "a.yaml")
	writeFile(t, in, "a:    1\n")

	opts := DefaultOptions()
	opts.Prune = true

	pruned, err := ConvertFile(in, filepath.Join(tmpDir, ".", "a.yaml"), opts)
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}
	if pruned {
		t.Error("in-place conversion must not prune")
	}
	if got := readFile(t, in); got != "a: 1\n" {
		t.Errorf("output = %q, want %q", got, "a: 1\n")
	}
}

func TestConvertFile_InvalidExtensionDoesNoIO(t *testing.T) {
	tmpDir := t.TempDir()
	out := filepath.Join(tmpDir, "sub", "a.toml")

	// The input does not exist: the extension check must fail first.
	_, err := ConvertFile(filepath.Join(tmpDir, "missing.json"), out, DefaultOptions())
	if !errors.Is(err, convert.ErrInvalidExtension) {
		t.Fatalf("error = %v, want ErrInvalidExtension", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "sub")); !os.IsNotExist(err) {
		t.Error("output directory created for rejected conversion")
	}

	_, err = ConvertFile(filepath.Join(tmpDir, "missing.ini"), filepath.Join(tmpDir, "a.json"), DefaultOptions())
	if !errors.Is(err, convert.ErrInvalidExtension) {
		t.Fatalf("error = %v, want ErrInvalidExtension", err)
	}
}

func TestConvertFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ConvertFile(filepath.Join(tmpDir, "missing.json"), filepath.Join(tmpDir, "a.yaml"), DefaultOptions())
	if !errors.Is(err, convert.ErrIO) {
		t.Errorf("missing input: error = %v, want ErrIO", err)
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	out := filepath.Join(tmpDir, "bad.json")
	writeFile(t, bad, "a: [1, 2")
	_, err = ConvertFile(bad, out, DefaultOptions())
	if !errors.Is(err, convert.ErrParse) {
		t.Errorf("bad input: error = %v, want ErrParse", err)
	}
	if !strings.Contains(err.Error(), bad) {
		t.Errorf("error %q does not name the file", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output written for failed conversion")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), "{}")
	writeFile(t, filepath.Join(root, "b.yaml"), "a: 1")
	writeFile(t, filepath.Join(root, "deep", "er", "c.yml"), "a: 1")
	writeFile(t, filepath.Join(root, "deep", "d.txt"), "x")
	writeFile(t, filepath.Join(root, "deep", "e.JSON"), "{}")

	got, err := Find(root, []string{"yaml,yml"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	want := []string{
		filepath.Join(root, "b.yaml"),
		filepath.Join(root, "deep", "er", "c.yml"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}

	got, err = Find(root, []string{"json", "json"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "a.json")}, got); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_Errors(t *testing.T) {
	root := t.TempDir()

	if _, err := Find(root, []string{"xml"}); !errors.Is(err, convert.ErrInvalidExtension) {
		t.Errorf("error = %v, want ErrInvalidExtension", err)
	}
	if _, err := Find(filepath.Join(root, "missing"), []string{"json"}); !errors.Is(err, convert.ErrIO) {
		t.Errorf("error = %v, want ErrIO", err)
	}
}

func TestPattern(t *testing.T) {
	if got := Pattern([]string{"json"}); got != "**/*.json" {
		t.Errorf("Pattern = %q", got)
	}
	if got := Pattern([]string{"yaml", "yml"}); got != "**/*.{yaml,yml}" {
		t.Errorf("Pattern = %q", got)
	}
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), `{"a": 1}`)
	writeFile(t, filepath.Join(root, "sub", "b.json"), `{"$schema": "s.json", "b": [1]}`)

	var logs bytes.Buffer
	opts := DefaultOptions()
	opts.Prune = true
	opts.Logger = log.New(&logs, "", 0)

	result, err := Run(context.Background(), root, []string{"json"}, "yml", opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Converted != 2 || result.Failed != 0 || result.Pruned != 2 {
		t.Errorf("result = %+v", result)
	}

	if got := readFile(t, filepath.Join(root, "a.yml")); got != "a: 1\n" {
		t.Errorf("a.yml = %q", got)
	}
	b := readFile(t, filepath.Join(root, "sub", "b.yml"))
	if !strings.HasPrefix(b, "# yaml-language-server: $schema=s.json\n\n") {
		t.Errorf("b.yml = %q", b)
	}
	if _, err := os.Stat(filepath.Join(root, "a.json")); !os.IsNotExist(err) {
		t.Error("a.json not pruned")
	}
	if !strings.Contains(logs.String(), "Found 2 files") {
		t.Errorf("missing log line in %q", logs.String())
	}
}

func TestRun_FailFast(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yaml"), "a: [")
	writeFile(t, filepath.Join(root, "b.yaml"), "b: 1\n")

	result, err := Run(context.Background(), root, []string{"yaml"}, "json", DefaultOptions())
	if !errors.Is(err, convert.ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
	if len(result.Files) != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want only the failing file attempted", result)
	}
	if _, err := os.Stat(filepath.Join(root, "b.json")); !os.IsNotExist(err) {
		t.Error("b.json written after fail-fast abort")
	}
}

func TestRun_KeepGoing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yaml"), "a: [")
	writeFile(t, filepath.Join(root, "b.yaml"), "b: 1\n")
	writeFile(t, filepath.Join(root, "c.yaml"), "c: .nan\n")

	opts := DefaultOptions()
	opts.KeepGoing = true
	opts.Jobs = 3

	result, err := Run(context.Background(), root, []string{"yaml"}, "json", opts)
	if err != nil {
		t.Fatalf("Run returned %v in keep-going mode", err)
	}
	if result.Converted != 1 || result.Failed != 2 {
		t.Errorf("result = %+v", result)
	}

	joined := result.Err()
	if !errors.Is(joined, convert.ErrParse) || !errors.Is(joined, convert.ErrSerialize) {
		t.Errorf("joined error = %v, want parse and serialize failures", joined)
	}
	if got := readFile(t, filepath.Join(root, "b.json")); got != "{\n  \"b\": 1\n}" {
		t.Errorf("b.json = %q", got)
	}
}

func TestRun_InvalidOutputExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), "{}")

	_, err := Run(context.Background(), root, []string{"json"}, "toml", DefaultOptions())
	if !errors.Is(err, convert.ErrInvalidExtension) {
		t.Errorf("error = %v, want ErrInvalidExtension", err)
	}
}

func TestResultErrNil(t *testing.T) {
	var r *Result
	if r.Err() != nil {
		t.Error("nil result should have nil error")
	}
	if (&Result{Files: []FileResult{{Input: "a"}}}).Err() != nil {
		t.Error("successful result should have nil error")
	}
}
