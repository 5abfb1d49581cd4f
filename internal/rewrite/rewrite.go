package rewrite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"i18n-extractor/internal/catalog"
	"i18n-extractor/internal/parser"
	"i18n-extractor/internal/planner"
	"i18n-extractor/internal/safeio"
	"i18n-extractor/internal/textutil"

	"github.com/rs/zerolog/log"
)

var (
	// ErrDuplicateKey: strict validation found the key already holding different text.
	ErrDuplicateKey = errors.New("duplicate key conflict")
	// ErrRangeOutOfBounds: an occurrence range does not fit the current buffer.
	ErrRangeOutOfBounds = errors.New("range out of bounds")
	// ErrOverlap: two occurrences of one file overlap.
	ErrOverlap = errors.New("overlapping ranges")
)

// DefaultIdentifier is the namespace object keys are resolved through.
const DefaultIdentifier = "I18N"

// Reference renders the source expression for key.
func Reference(ident, key string) string {
	return ident + "." + key
}

// Substitute replaces r's range in src with the reference expression wrapped for its context.
func Substitute(src, file string, r planner.Replaceable, ident string) (string, error) {
	start, end := r.Occurrence.Range.Start, r.Occurrence.Range.End
	if start < 0 || end > len(src) || start > end {
		return "", fmt.Errorf("%w: [%d,%d) in %d bytes", ErrRangeOutOfBounds, start, end, len(src))
	}

	ref := Reference(ident, r.Key)
	markup := parser.IsMarkupFile(file)

	var repl string
	switch r.Occurrence.Context {
	case parser.PlainString:
		repl = ref
		// Attribute binding: title="文案" in a template becomes title={{I18N.key}}.
		if markup && start > 0 && src[start-1] == '=' {
			repl = "{{" + ref + "}}"
		}
	case parser.MarkupExpression:
		if markup {
			repl = "{{" + ref + "}}"
		} else {
			repl = "{" + ref + "}"
		}
	case parser.TemplateLiteralSlot:
		repl = "${" + ref + "}"
	default:
		return "", fmt.Errorf("unknown context type %d", r.Occurrence.Context)
	}

	return src[:start] + repl + src[end:], nil
}

// Engine applies replacements and commits new entries to the catalog.
type Engine struct {
	catalog *catalog.Catalog
	ident   string
}

func NewEngine(c *catalog.Catalog, ident string) *Engine {
	if ident == "" {
		ident = DefaultIdentifier
	}
	return &Engine{catalog: c, ident: ident}
}

// Apply substitutes one occurrence. When r.NeedWrite is set the key is committed with
// the occurrence text; validateDuplicate rejects keys that already hold different text.
// On error src is returned unchanged and the catalog is untouched.
func (e *Engine) Apply(file, src string, r planner.Replaceable, validateDuplicate bool) (string, error) {
	out, err := Substitute(src, file, r, e.ident)
	if err != nil {
		return src, fmt.Errorf("replace %s in %s: %w", r.Key, file, err)
	}

	if r.NeedWrite {
		text := textutil.UnescapeNewlines(r.Occurrence.Text)
		if validateDuplicate {
			if v, ok := e.catalog.LookupValueByKey(r.Key); ok && v != text {
				return src, fmt.Errorf("%w: key %q already holds %q", ErrDuplicateKey, r.Key, textutil.Truncate(v, 30))
			}
		}
		e.catalog.Set(r.Key, text)
	}

	return out, nil
}

// ApplyAll validates every range against src, then applies the replacements in
// descending start order so that each recorded range is still valid when applied.
func (e *Engine) ApplyAll(file, src string, rs []planner.Replaceable) (string, error) {
	ordered := make([]planner.Replaceable, len(rs))
	copy(ordered, rs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Occurrence.Range.Start > ordered[j].Occurrence.Range.Start
	})

	for i, r := range ordered {
		rg := r.Occurrence.Range
		if rg.Start < 0 || rg.End > len(src) || rg.Start > rg.End {
			return src, fmt.Errorf("%s: %w: [%d,%d)", file, ErrRangeOutOfBounds, rg.Start, rg.End)
		}
		if i > 0 && rg.End > ordered[i-1].Occurrence.Range.Start {
			return src, fmt.Errorf("%s: %w: [%d,%d) and [%d,%d)", file, ErrOverlap,
				rg.Start, rg.End, ordered[i-1].Occurrence.Range.Start, ordered[i-1].Occurrence.Range.End)
		}
	}

	out := src
	for _, r := range ordered {
		next, err := e.Apply(file, out, r, false)
		if err != nil {
			return out, err
		}
		out = next
	}
	return out, nil
}

// ReplaceFile is the standalone single-replacement entry point: it reads path, applies r
// and writes the file back atomically.
func (e *Engine) ReplaceFile(ctx context.Context, path string, r planner.Replaceable, validateDuplicate bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	out, err := e.Apply(path, string(data), r, validateDuplicate)
	if err != nil {
		return err
	}

	if err := safeio.WriteFileAtomic(path, []byte(out), safeio.PermOf(path, 0o644)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Info().Str("file", path).Str("key", r.Key).Bool("need_write", r.NeedWrite).Msg("Replaced text")
	return nil
}
