// Package batch converts files on disk.
//
// ConvertFile handles one input/output pair: it validates both extensions
// before touching the filesystem, converts the content in memory, and only
// then writes the output atomically. Run applies ConvertFile to every file
// under a root that matches a set of extensions.
package batch

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsyml/jsyml/internal/convert"
	"github.com/jsyml/jsyml/internal/format"
	"github.com/jsyml/jsyml/internal/indent"
)

// Options configures file conversion.
type Options struct {
	// Indent is the requested output indentation.
	Indent indent.Spec

	// Prune deletes each source file after it was converted successfully,
	// unless the output path is the source path.
	Prune bool

	// KeepGoing makes Run attempt every file and report failures per file
	// instead of stopping at the first one.
	KeepGoing bool

	// Jobs is the number of files converted concurrently by Run.
	// Values below 1 mean sequential.
	Jobs int

	// Logger for conversion activity
	Logger *log.Logger
}

// DefaultOptions returns canonical indentation, sequential and fail-fast.
func DefaultOptions() Options {
	return Options{
		Indent: indent.DefaultSpec(),
		Jobs:   1,
		Logger: log.New(io.Discard, "", 0),
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

// PathFormat returns the format and extension (without the dot) of path.
func PathFormat(path string) (format.Format, string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f, ok := format.FromExtension(ext)
	if !ok {
		return "", ext, &convert.Error{
			Op:   "validate",
			Kind: convert.ErrInvalidExtension,
			Path: path,
			Err:  fmt.Errorf("extension %q is not one of %s", ext, strings.Join(format.Extensions, ", ")),
		}
	}
	return f, ext, nil
}

// OutputPath replaces the extension of in with outExt.
func OutputPath(in, outExt string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + "." + strings.TrimPrefix(outExt, ".")
}

// SamePath reports whether a and b name the same file after cleaning.
func SamePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// ConvertFile converts in and writes the result to out, creating parent
// directories as needed. When opts.Prune is set and out differs from in, the
// source is removed afterwards; pruned reports whether that happened.
func ConvertFile(in, out string, opts Options) (pruned bool, err error) {
	inFmt, _, err := PathFormat(in)
	if err != nil {
		return false, err
	}
	outFmt, _, err := PathFormat(out)
	if err != nil {
		return false, err
	}
	if !convert.Supported(inFmt, outFmt) {
		return false, &convert.Error{Op: "validate", Kind: convert.ErrUnsupportedPair, Path: in,
			Err: fmt.Errorf("%s", convert.Pair{In: inFmt, Out: outFmt})}
	}
	if err := opts.Indent.Validate(); err != nil {
		return false, err
	}

	logger := opts.logger()

	// #nosec G304 - path comes from the command line or a directory walk
	raw, err := os.ReadFile(in)
	if err != nil {
		return false, &convert.Error{Op: "read", Kind: convert.ErrIO, Path: in, Err: err}
	}

	text, err := convert.Document(raw, inFmt, outFmt, opts.Indent)
	if err != nil {
		return false, fmt.Errorf("%s: %w", in, err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(in); err == nil {
		mode = info.Mode().Perm()
	}

	if err := writeAtomic(out, []byte(text), mode); err != nil {
		return false, err
	}
	logger.Printf("Converted %s -> %s (%s to %s)", in, out, inFmt, outFmt)

	if !opts.Prune || SamePath(in, out) {
		return false, nil
	}
	if err := os.Remove(in); err != nil {
		return false, &convert.Error{Op: "prune", Kind: convert.ErrIO, Path: in, Err: err}
	}
	logger.Printf("Pruned %s", in)
	return true, nil
}

// writeAtomic writes data next to path and renames it into place, so a
// failed write never leaves a half-written output.
func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &convert.Error{Op: "mkdir", Kind: convert.ErrIO, Path: filepath.Dir(path), Err: err}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		_ = os.Remove(tmpPath)
		return &convert.Error{Op: "write", Kind: convert.ErrIO, Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &convert.Error{Op: "rename", Kind: convert.ErrIO, Path: path, Err: err}
	}

	return nil
}
