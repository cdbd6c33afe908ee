package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_QuietByDefault(t *testing.T) {
	var stderr bytes.Buffer
	cfg := DefaultConfig()
	cfg.Stderr = &stderr

	logger, cleanup := New(cfg)
	defer cleanup()

	logger.Printf("hidden")
	if stderr.Len() != 0 {
		t.Errorf("quiet logger wrote %q", stderr.String())
	}
}

func TestNew_Verbose(t *testing.T) {
	var stderr bytes.Buffer
	cfg := DefaultConfig()
	cfg.Verbose = true
	cfg.Stderr = &stderr

	logger, cleanup := New(cfg)
	defer cleanup()

	logger.Printf("converted %s", "a.json")
	out := stderr.String()
	if !strings.Contains(out, Prefix) || !strings.Contains(out, "converted a.json") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jsyml.log")
	var stderr bytes.Buffer

	cfg := DefaultConfig()
	cfg.Verbose = true
	cfg.Stderr = &stderr
	cfg.File = path

	logger, cleanup := New(cfg)
	logger.Printf("to both")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "to both") {
		t.Errorf("log file = %q", data)
	}
	if !strings.Contains(stderr.String(), "to both") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
