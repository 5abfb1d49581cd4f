package parser

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
)

// ContextType classifies the syntactic position of an occurrence.
type ContextType int

const (
	// PlainString is a quoted string literal (quotes included in the range).
	PlainString ContextType = iota
	// MarkupExpression is markup text or a markup attribute value.
	MarkupExpression
	// TemplateLiteralSlot is the static part of a template literal with substitutions.
	TemplateLiteralSlot
)

func (c ContextType) String() string {
	switch c {
	case PlainString:
		return "string"
	case MarkupExpression:
		return "jsx"
	case TemplateLiteralSlot:
		return "template"
	default:
		return "unknown"
	}
}

// ParseContextType maps the CLI spelling of a context type back to its value.
func ParseContextType(s string) (ContextType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "plain":
		return PlainString, true
	case "jsx", "markup":
		return MarkupExpression, true
	case "template":
		return TemplateLiteralSlot, true
	default:
		return 0, false
	}
}

// Range is a half-open byte interval [Start, End) into the unmodified source.
type Range struct {
	Start int
	End   int
}

// Occurrence is one located span of extractable text.
type Occurrence struct {
	// Text is the literal content without quotes or markup delimiters.
	Text string
	// Range covers the bytes that get replaced.
	Range Range
	// Context decides how the replacement is wrapped.
	Context ContextType
}

// FileTexts holds the occurrences found in one file, sorted descending by Range.Start.
type FileTexts struct {
	File  string
	Texts []Occurrence
}

// Parser locates occurrences in a source buffer.
type Parser interface {
	// CanParse returns true if this parser handles the given file extension.
	CanParse(ext string) bool
	// Parse returns the occurrences found in src.
	Parse(ctx context.Context, filePath string, src []byte) ([]Occurrence, error)
}

// SortDescending orders occurrences from last-in-file to first-in-file.
func SortDescending(texts []Occurrence) {
	sort.SliceStable(texts, func(i, j int) bool {
		return texts[i].Range.Start > texts[j].Range.Start
	})
}

// IsMarkupFile reports whether the path is a markup/template file (.html, .vue).
func IsMarkupFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".vue":
		return true
	}
	return false
}

// IsScriptFile reports whether the path is a plain script module.
func IsScriptFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts":
		return true
	}
	return false
}
