// Package bundle resolves the caller-supplied file list for a multi-file
// input into a concrete, deduplicated, ordered set of file paths: entries
// may be literal paths, directories (walked recursively), or glob patterns.
package bundle

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFiles bounds how many files a single Resolve call returns, to
// keep a mistakenly broad directory or glob from producing an unbounded
// multi-file dispatch.
const DefaultMaxFiles = 20_000

// heavyDirs are skipped during directory walks regardless of ShouldIgnore.
var heavyDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"__pycache__": true, ".venv": true, "dist": true, "build": true,
}

// Options configures Resolve.
type Options struct {
	MaxFiles     int                  // 0 means DefaultMaxFiles
	ShouldIgnore func(path string) bool
}

// Resolve expands patterns (literal paths, directories, or doublestar glob
// patterns) into a deduplicated, order-preserving list of file paths.
// Entries that don't exist are skipped rather than failing the whole call,
// since file-parallel dispatch isolates per-file errors downstream anyway.
func Resolve(ctx context.Context, patterns []string, opts Options) ([]string, error) {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		norm := normalize(path)
		if seen[norm] || (opts.ShouldIgnore != nil && opts.ShouldIgnore(norm)) {
			return
		}
		seen[norm] = true
		files = append(files, norm)
	}

	for _, pattern := range patterns {
		if ctx.Err() != nil {
			return files, ctx.Err()
		}
		if len(files) >= maxFiles {
			return files, nil
		}

		if hasGlob(pattern) {
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
			}
			for _, m := range matches {
				if len(files) >= maxFiles {
					return files, nil
				}
				add(m)
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", pattern, err)
		}

		if !info.IsDir() {
			add(pattern)
			continue
		}

		walked, err := walkDir(ctx, pattern, maxFiles-len(files), opts.ShouldIgnore)
		if err != nil {
			return nil, err
		}
		for _, w := range walked {
			add(w)
		}
	}

	return files, nil
}

func walkDir(ctx context.Context, root string, budget int, shouldIgnore func(string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if budget > 0 && len(files) >= budget {
			return fs.SkipAll
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if heavyDirs[name] || (strings.HasPrefix(name, ".") && name != ".") {
				return fs.SkipDir
			}
			if shouldIgnore != nil && shouldIgnore(path) {
				return fs.SkipDir
			}
			return nil
		}
		if shouldIgnore != nil && shouldIgnore(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return files, err
	}
	return files, nil
}

func hasGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func normalize(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}
