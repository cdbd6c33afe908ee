package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/jsyml/jsyml/internal/convert"
	"github.com/jsyml/jsyml/internal/format"
)

// FileResult records the outcome for one matched file.
type FileResult struct {
	Input  string
	Output string
	Pruned bool
	Err    error
}

// Result contains statistics about a directory run.
type Result struct {
	Files     []FileResult
	Converted int
	Pruned    int
	Failed    int
}

// Err joins the errors of every failed file, or returns nil.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Pattern returns the glob used to select files with the given extensions.
func Pattern(exts []string) string {
	if len(exts) == 1 {
		return "**/*." + exts[0]
	}
	return "**/*.{" + strings.Join(exts, ",") + "}"
}

// Find returns every file under root whose extension is one of exts, sorted.
func Find(root string, exts []string) ([]string, error) {
	exts, err := format.ParseExtensions(exts)
	if err != nil {
		return nil, &convert.Error{Op: "find", Kind: convert.ErrInvalidExtension, Path: root, Err: err}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, &convert.Error{Op: "find", Kind: convert.ErrIO, Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &convert.Error{Op: "find", Kind: convert.ErrIO, Path: root, Err: fmt.Errorf("not a directory")}
	}

	matches, err := doublestar.Glob(os.DirFS(root), Pattern(exts))
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", root, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(root, filepath.FromSlash(m))
		if fi, err := os.Stat(path); err != nil || fi.IsDir() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// Run converts every file under root matching exts into a sibling file with
// extension outExt.
//
// By default the run stops at the first failure and returns it along with the
// results gathered so far. With opts.KeepGoing every file is attempted, the
// returned error is nil, and failures are reported through Result.
func Run(ctx context.Context, root string, exts []string, outExt string, opts Options) (*Result, error) {
	if _, ok := format.FromExtension(strings.TrimPrefix(outExt, ".")); !ok {
		return nil, &convert.Error{Op: "validate", Kind: convert.ErrInvalidExtension,
			Err: fmt.Errorf("output extension %q", outExt)}
	}
	if err := opts.Indent.Validate(); err != nil {
		return nil, err
	}

	files, err := Find(root, exts)
	if err != nil {
		return nil, err
	}

	logger := opts.logger()
	logger.Printf("Found %d files under %s matching %s", len(files), root, Pattern(exts))

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	results := make([]FileResult, len(files))
	attempted := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, in := range files {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			attempted[i] = true

			out := OutputPath(in, outExt)
			pruned, err := ConvertFile(in, out, opts)
			results[i] = FileResult{Input: in, Output: out, Pruned: pruned, Err: err}

			if err != nil {
				logger.Printf("Failed %s: %v", in, err)
				if !opts.KeepGoing {
					return err
				}
			}
			return nil
		})
	}

	runErr := g.Wait()

	result := &Result{}
	for i, r := range results {
		if !attempted[i] {
			continue
		}
		result.Files = append(result.Files, r)
		switch {
		case r.Err != nil:
			result.Failed++
		default:
			result.Converted++
			if r.Pruned {
				result.Pruned++
			}
		}
	}

	if runErr == nil {
		runErr = ctx.Err()
	}
	return result, runErr
}
