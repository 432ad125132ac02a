package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultIgnoreDirs are skipped at any depth. VCS and dependency trees carry
// no relevance signal and dominate walk time on real projects.
var defaultIgnoreDirs = []string{
	".git", ".hg", ".svn", "node_modules", "vendor", "target", "build", "dist", ".next", ".cache",
}

// Options controls a walk.
type Options struct {
	// IgnoreDirs replaces the default directory skip list when non-nil.
	IgnoreDirs []string
	// IgnoreGlobs are doublestar patterns matched against the repo-relative
	// path (e.g. "**/*.min.js", "docs/generated/**").
	IgnoreGlobs []string
	// MaxFileSize skips larger files when > 0.
	MaxFileSize int64
}

// FileVisit carries per-entry metadata to the callback.
type FileVisit struct {
	// Repo-relative path using forward slashes.
	Path string
	// Absolute filesystem path.
	AbsPath string
	// Lowercased extension including the dot; empty for no-ext files.
	Ext  string
	Size int64
}

// VisitFunc is invoked for every visited file entry.
type VisitFunc func(f FileVisit)

// Walk traverses root and invokes cb for each file. Unreadable entries are
// skipped; a missing or unreadable root yields an empty walk, not an error.
// A single bad file never aborts the scan.
func Walk(root string, opts Options, cb VisitFunc) error {
	if cb == nil {
		return nil
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil
	}
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		return nil
	}

	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = defaultIgnoreDirs
	}
	skipDir := make(map[string]struct{}, len(ignoreDirs))
	for _, d := range ignoreDirs {
		d = strings.TrimSpace(d)
		if d != "" {
			skipDir[d] = struct{}{}
		}
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if _, ok := skipDir[filepath.Base(path)]; ok && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range opts.IgnoreGlobs {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}

		size := int64(0)
		if fi, e := os.Stat(path); e == nil {
			size = fi.Size()
		}
		if opts.MaxFileSize > 0 && size > opts.MaxFileSize {
			return nil
		}

		cb(FileVisit{
			Path:    rel,
			AbsPath: path,
			Ext:     strings.ToLower(filepath.Ext(rel)),
			Size:    size,
		})
		return nil
	})
}

// List collects all visited files in walk order.
func List(root string, opts Options) ([]FileVisit, error) {
	var out []FileVisit
	err := Walk(root, opts, func(f FileVisit) { out = append(out, f) })
	return out, err
}
