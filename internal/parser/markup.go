package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"i18n-extractor/internal/textutil"

	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// MarkupParser extracts Chinese text from HTML pages and Vue single-file components.
// Embedded script blocks go through the script grammar; the template is scanned lexically.
type MarkupParser struct{}

func NewMarkupParser() *MarkupParser { return &MarkupParser{} }

func (p *MarkupParser) CanParse(ext string) bool {
	switch ext {
	case ".html", ".htm", ".vue":
		return true
	}
	return false
}

// blockPattern matches script and style elements including their bodies.
var blockPattern = regexp.MustCompile(`(?is)<(script|style)(\s[^>]*)?>(.*?)</(?:script|style)\s*>`)

var commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

var tagPattern = regexp.MustCompile(`<[^<>]*>`)

// attrPattern captures name=value pairs with a quoted value. Whitespace around = is not
// accepted so that the replacement can rely on the value following = directly.
var attrPattern = regexp.MustCompile(`([:@#]?[A-Za-z_][\w:.\-]*)=("[^"]*"|'[^']*')`)

var mustachePattern = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

// quotedPattern matches double and single quoted strings with escapes.
var quotedPattern = regexp.MustCompile(`"([^"\\]*(?:\\.[^"\\]*)*)"|'([^'\\]*(?:\\.[^'\\]*)*)'`)

var scriptLangTS = regexp.MustCompile(`(?i)\blang\s*=\s*["']?(ts|tsx)\b`)

func (p *MarkupParser) Parse(ctx context.Context, filePath string, src []byte) ([]Occurrence, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("parse %s: content is not valid UTF-8", filePath)
	}

	doc := string(src)
	masked := make([]bool, len(doc))
	mask := func(start, end int) {
		for i := start; i < end; i++ {
			masked[i] = true
		}
	}

	var texts []Occurrence

	for _, loc := range blockPattern.FindAllStringSubmatchIndex(doc, -1) {
		mask(loc[0], loc[1])
		if !strings.EqualFold(doc[loc[2]:loc[3]], "script") || loc[6] == loc[7] {
			continue
		}

		lang := javascript.GetLanguage()
		if loc[4] >= 0 && scriptLangTS.MatchString(doc[loc[4]:loc[5]]) {
			lang = typescript.GetLanguage()
		}
		found, err := scanScript(ctx, lang, src[loc[6]:loc[7]])
		if err != nil {
			return nil, fmt.Errorf("parse %s: script block: %w", filePath, err)
		}
		for _, occ := range found {
			occ.Range.Start += loc[6]
			occ.Range.End += loc[6]
			texts = append(texts, occ)
		}
	}

	for _, loc := range commentPattern.FindAllStringIndex(doc, -1) {
		if !masked[loc[0]] {
			mask(loc[0], loc[1])
		}
	}

	for _, loc := range tagPattern.FindAllStringIndex(doc, -1) {
		if masked[loc[0]] {
			continue
		}
		texts = append(texts, attributeOccurrences(doc, loc[0], loc[1])...)
		mask(loc[0], loc[1])
	}

	for start := 0; start < len(doc); {
		if masked[start] {
			start++
			continue
		}
		end := start
		for end < len(doc) && !masked[end] {
			end++
		}
		texts = append(texts, textOccurrences(doc, start, end)...)
		start = end
	}

	SortDescending(texts)
	return texts, nil
}

// attributeOccurrences handles the attributes of the tag doc[start:end]. Static values
// become PlainString over the quoted value; bound values (:x, @x, #x, v-x) are script
// expressions, so only the quoted literals inside them are taken.
func attributeOccurrences(doc string, start, end int) []Occurrence {
	var out []Occurrence
	tag := doc[start:end]
	for _, loc := range attrPattern.FindAllStringSubmatchIndex(tag, -1) {
		name := tag[loc[2]:loc[3]]
		vStart, vEnd := start+loc[4], start+loc[5]
		value := doc[vStart+1 : vEnd-1]
		if !textutil.ContainsChinese(value) {
			continue
		}

		if isBoundAttribute(name) {
			out = append(out, quotedOccurrences(doc, vStart+1, vEnd-1)...)
			continue
		}
		out = append(out, Occurrence{Text: value, Range: Range{Start: vStart, End: vEnd}, Context: PlainString})
	}
	return out
}

func isBoundAttribute(name string) bool {
	return strings.HasPrefix(name, ":") || strings.HasPrefix(name, "@") ||
		strings.HasPrefix(name, "#") || strings.HasPrefix(name, "v-")
}

// quotedOccurrences returns the Chinese string literals inside the expression doc[start:end].
func quotedOccurrences(doc string, start, end int) []Occurrence {
	var out []Occurrence
	expr := doc[start:end]
	for _, loc := range quotedPattern.FindAllStringSubmatchIndex(expr, -1) {
		var text string
		if loc[2] >= 0 {
			text = expr[loc[2]:loc[3]]
		} else if loc[4] >= 0 {
			text = expr[loc[4]:loc[5]]
		}
		if !textutil.ContainsChinese(text) {
			continue
		}
		out = append(out, Occurrence{
			Text:    text,
			Range:   Range{Start: start + loc[0], End: start + loc[1]},
			Context: PlainString,
		})
	}
	return out
}

// textOccurrences splits the text run doc[start:end] around interpolations.
func textOccurrences(doc string, start, end int) []Occurrence {
	var out []Occurrence
	prev := start
	for _, loc := range mustachePattern.FindAllStringIndex(doc[start:end], -1) {
		out = appendTextPiece(out, doc, prev, start+loc[0])
		out = append(out, quotedOccurrences(doc, start+loc[0]+2, start+loc[1]-2)...)
		prev = start + loc[1]
	}
	return appendTextPiece(out, doc, prev, end)
}

func appendTextPiece(out []Occurrence, doc string, start, end int) []Occurrence {
	raw := doc[start:end]
	trimmed := strings.TrimFunc(raw, unicode.IsSpace)
	if trimmed == "" || !textutil.ContainsChinese(trimmed) {
		return out
	}
	lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	return append(out, Occurrence{
		Text:    trimmed,
		Range:   Range{Start: start + lead, End: start + lead + len(trimmed)},
		Context: MarkupExpression,
	})
}
