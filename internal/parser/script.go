package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"i18n-extractor/internal/textutil"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ScriptParser extracts Chinese text literals from JavaScript/TypeScript sources.
type ScriptParser struct{}

func NewScriptParser() *ScriptParser { return &ScriptParser{} }

func (p *ScriptParser) CanParse(ext string) bool {
	switch ext {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts":
		return true
	}
	return false
}

// LanguageFor picks the tree-sitter grammar for a script path.
func LanguageFor(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// ParseTree parses src with the grammar matching filePath. The caller closes the tree.
func ParseTree(ctx context.Context, lang *sitter.Language, src []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}

func (p *ScriptParser) Parse(ctx context.Context, filePath string, src []byte) ([]Occurrence, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("parse %s: content is not valid UTF-8", filePath)
	}

	texts, err := scanScript(ctx, LanguageFor(filePath), src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	SortDescending(texts)
	return texts, nil
}

// scanScript collects occurrences from a script buffer, in document order.
func scanScript(ctx context.Context, lang *sitter.Language, src []byte) ([]Occurrence, error) {
	tree, err := ParseTree(ctx, lang, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	var texts []Occurrence
	collect(root, src, &texts)
	return texts, nil
}

func collect(node *sitter.Node, src []byte, out *[]Occurrence) {
	switch node.Type() {
	case "comment", "import_statement", "literal_type":
		return
	case "string":
		if occ, ok := stringOccurrence(node, src); ok {
			*out = append(*out, occ)
		}
		return
	case "template_string":
		templateOccurrences(node, src, out)
	case "jsx_text":
		if occ, ok := jsxTextOccurrence(node, src); ok {
			*out = append(*out, occ)
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), src, out)
	}
}

func stringOccurrence(node *sitter.Node, src []byte) (Occurrence, bool) {
	start, end := int(node.StartByte()), int(node.EndByte())
	if end-start < 2 {
		return Occurrence{}, false
	}
	text := string(src[start+1 : end-1])
	if !textutil.ContainsChinese(text) {
		return Occurrence{}, false
	}

	parent := node.Parent()
	ctxType := PlainString
	if parent != nil {
		switch parent.Type() {
		case "jsx_attribute":
			ctxType = MarkupExpression
		case "export_statement":
			// export … from '…'
			return Occurrence{}, false
		case "pair":
			// Object keys stay literal.
			if key := parent.ChildByFieldName("key"); key != nil && key.StartByte() == node.StartByte() {
				return Occurrence{}, false
			}
		}
	}

	return Occurrence{Text: text, Range: Range{Start: start, End: end}, Context: ctxType}, true
}

// templateOccurrences emits one occurrence for a substitution-free template, otherwise one
// TemplateLiteralSlot per static chunk that holds Chinese text.
func templateOccurrences(node *sitter.Node, src []byte, out *[]Occurrence) {
	start, end := int(node.StartByte()), int(node.EndByte())
	if end-start < 2 {
		return
	}

	var subs []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "template_substitution" {
			subs = append(subs, child)
		}
	}

	if len(subs) == 0 {
		text := string(src[start+1 : end-1])
		if textutil.ContainsChinese(text) {
			*out = append(*out, Occurrence{Text: text, Range: Range{Start: start, End: end}, Context: PlainString})
		}
		return
	}

	prev := start + 1
	emit := func(from, to int) {
		if to <= from {
			return
		}
		chunk := string(src[from:to])
		if textutil.ContainsChinese(chunk) {
			*out = append(*out, Occurrence{Text: chunk, Range: Range{Start: from, End: to}, Context: TemplateLiteralSlot})
		}
	}
	for _, sub := range subs {
		emit(prev, int(sub.StartByte()))
		prev = int(sub.EndByte())
	}
	emit(prev, end-1)
}

func jsxTextOccurrence(node *sitter.Node, src []byte) (Occurrence, bool) {
	start, end := int(node.StartByte()), int(node.EndByte())
	raw := string(src[start:end])
	trimmed := strings.TrimFunc(raw, unicode.IsSpace)
	if trimmed == "" || !textutil.ContainsChinese(trimmed) {
		return Occurrence{}, false
	}
	lead := strings.Index(raw, trimmed)
	return Occurrence{
		Text:    trimmed,
		Range:   Range{Start: start + lead, End: start + lead + len(trimmed)},
		Context: MarkupExpression,
	}, true
}
