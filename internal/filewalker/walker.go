package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"i18n-extractor/internal/parser"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// DefaultExtensions lists file types handled by the tool.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".vue", ".html"}

// DefaultIgnoreDirs are never descended into.
var DefaultIgnoreDirs = []string{"node_modules", ".git", "dist", "build", "coverage"}

// Options controls which files a Walker reports.
type Options struct {
	Extensions []string
	// IgnoreDirs are directory base names skipped at any depth.
	IgnoreDirs []string
	// IgnoreGlobs are doublestar patterns matched against the slash path relative to the root.
	IgnoreGlobs []string
	// Exclude holds directories whose contents are never reported (the catalog directory).
	Exclude []string
}

// Walker traverses directories and dispatches files to the correct parser.
type Walker struct {
	parsers    []parser.Parser
	extensions map[string]bool
	ignoreDirs map[string]bool
	globs      []string
	exclude    []string
}

// NewWalker creates a Walker with the script and markup parsers.
func NewWalker(opts Options) *Walker {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	dirs := opts.IgnoreDirs
	if dirs == nil {
		dirs = DefaultIgnoreDirs
	}

	w := &Walker{
		parsers: []parser.Parser{
			parser.NewScriptParser(),
			parser.NewMarkupParser(),
		},
		extensions: make(map[string]bool, len(exts)),
		ignoreDirs: make(map[string]bool, len(dirs)),
		globs:      opts.IgnoreGlobs,
	}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		w.extensions[e] = true
	}
	for _, d := range dirs {
		w.ignoreDirs[d] = true
	}
	for _, ex := range opts.Exclude {
		if abs, err := filepath.Abs(ex); err == nil {
			w.exclude = append(w.exclude, abs)
		}
	}
	return w
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path   string
	Ext    string
	Parser parser.Parser
}

// Resolve expands a target into file entries. The target is either a directory or a
// comma-separated list of files; files inside excluded directories are dropped.
func (w *Walker) Resolve(target string) ([]FileEntry, error) {
	parts := strings.Split(target, ",")
	first := strings.TrimSpace(parts[0])

	if info, err := os.Stat(first); err == nil && info.IsDir() && len(parts) == 1 {
		return w.Walk(first)
	}

	var entries []FileEntry
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Skipping missing file")
			continue
		}
		if info.IsDir() || w.excluded(abs) {
			continue
		}
		if e, ok := w.entry(abs); ok {
			entries = append(entries, e)
		}
	}

	log.Info().Int("count", len(entries)).Msg("Resolved files")
	return entries, nil
}

// Walk discovers all supported files under the given root directory.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && (w.ignoreDirs[d.Name()] || w.excluded(path) || w.ignored(rel)) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.ignored(rel) {
			return nil
		}
		if e, ok := w.entry(path); ok {
			entries = append(entries, e)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

func (w *Walker) entry(path string) (FileEntry, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !w.extensions[ext] {
		return FileEntry{}, false
	}
	for _, p := range w.parsers {
		if p.CanParse(ext) {
			return FileEntry{Path: path, Ext: ext, Parser: p}, true
		}
	}
	return FileEntry{}, false
}

func (w *Walker) ignored(rel string) bool {
	for _, g := range w.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(abs string) bool {
	for _, ex := range w.exclude {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
