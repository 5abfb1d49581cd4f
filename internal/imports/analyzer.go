package imports

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"i18n-extractor/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SourceAnalyzer answers the two questions import insertion needs about a source file.
type SourceAnalyzer interface {
	// HasBinding reports whether a top-level import binds ident (default, named or namespace).
	HasBinding(ctx context.Context, path, src, ident string) (bool, error)
	// FirstStatement returns the byte offset of the first top-level statement, skipping
	// leading comments and a hash-bang line. A file without statements yields len(src).
	FirstStatement(ctx context.Context, path, src string) (int, error)
}

var (
	scriptOpen  = regexp.MustCompile(`(?i)<script(\s[^>]*)?>`)
	scriptClose = regexp.MustCompile(`(?i)</script\s*>`)
	langTS      = regexp.MustCompile(`(?i)\blang\s*=\s*["']?(ts|tsx)\b`)
)

// TreeSitterAnalyzer implements SourceAnalyzer on tree-sitter grammars.
// Vue single-file components are analyzed through their first script block.
type TreeSitterAnalyzer struct{}

func NewTreeSitterAnalyzer() *TreeSitterAnalyzer { return &TreeSitterAnalyzer{} }

// scriptSection locates the analyzable script of a file. ok is false for files with no script.
func scriptSection(path, src string) (lang *sitter.Language, body string, offset int, ok bool) {
	if strings.EqualFold(filepath.Ext(path), ".vue") {
		open := scriptOpen.FindStringSubmatchIndex(src)
		if open == nil {
			return nil, "", 0, false
		}
		end := len(src)
		if loc := scriptClose.FindStringIndex(src[open[1]:]); loc != nil {
			end = open[1] + loc[0]
		}
		lang = javascript.GetLanguage()
		if open[2] >= 0 && langTS.MatchString(src[open[2]:open[3]]) {
			lang = typescript.GetLanguage()
		}
		return lang, src[open[1]:end], open[1], true
	}

	if !parser.IsScriptFile(path) {
		return nil, "", 0, false
	}
	return parser.LanguageFor(path), src, 0, true
}

func (a *TreeSitterAnalyzer) HasBinding(ctx context.Context, path, src, ident string) (bool, error) {
	lang, body, _, ok := scriptSection(path, src)
	if !ok {
		return false, nil
	}

	tree, err := parser.ParseTree(ctx, lang, []byte(body))
	if err != nil {
		return false, fmt.Errorf("analyze %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	content := []byte(body)
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() != "import_statement" {
			continue
		}
		for _, name := range importBindings(child, content) {
			if name == ident {
				return true, nil
			}
		}
	}
	return false, nil
}

// importBindings lists the local names an import statement introduces.
func importBindings(stmt *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		switch child.Type() {
		case "import_clause":
			names = append(names, clauseBindings(child, content)...)
		case "import_require_clause":
			// import I18N = require('…')
			if id := firstOfType(child, "identifier"); id != nil {
				names = append(names, id.Content(content))
			}
		}
	}
	return names
}

func clauseBindings(clause *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "identifier":
			names = append(names, child.Content(content))
		case "namespace_import":
			if id := firstOfType(child, "identifier"); id != nil {
				names = append(names, id.Content(content))
			}
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				// The last identifier is the local name: `a`, `a as b`, `default as b`.
				var local string
				for k := 0; k < int(spec.ChildCount()); k++ {
					if gc := spec.Child(k); gc.Type() == "identifier" {
						local = gc.Content(content)
					}
				}
				if local != "" {
					names = append(names, local)
				}
			}
		}
	}
	return names
}

func firstOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func (a *TreeSitterAnalyzer) FirstStatement(ctx context.Context, path, src string) (int, error) {
	lang, body, offset, ok := scriptSection(path, src)
	if !ok {
		return len(src), nil
	}

	tree, err := parser.ParseTree(ctx, lang, []byte(body))
	if err != nil {
		return 0, fmt.Errorf("analyze %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "comment", "hash_bang_line":
			continue
		}
		return offset + int(child.StartByte()), nil
	}
	return offset + len(body), nil
}
