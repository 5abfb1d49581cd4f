package imports

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultStatement is inserted into files that reference the catalog without importing it.
const DefaultStatement = "import I18N from 'src/utils/I18N';"

// Ensurer makes sure rewritten files import the catalog identifier.
type Ensurer struct {
	analyzer  SourceAnalyzer
	statement string
	ident     string
}

// NewEnsurer builds an Ensurer. Empty statement or ident fall back to the defaults.
func NewEnsurer(analyzer SourceAnalyzer, statement, ident string) *Ensurer {
	if analyzer == nil {
		analyzer = NewTreeSitterAnalyzer()
	}
	if statement == "" {
		statement = DefaultStatement
	}
	if ident == "" {
		ident = "I18N"
	}
	return &Ensurer{analyzer: analyzer, statement: statement, ident: ident}
}

// HasImport reports whether src already binds the identifier at top level.
func (e *Ensurer) HasImport(ctx context.Context, path, src string) (bool, error) {
	return e.analyzer.HasBinding(ctx, path, src, e.ident)
}

// Ensure returns src with the import statement added when it is missing.
// Script files get it before the first top-level statement, .vue files right after the
// opening script tag; other markup is returned unchanged.
func (e *Ensurer) Ensure(ctx context.Context, path, src string) (string, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".html", ".htm":
		return src, false, nil
	}

	has, err := e.HasImport(ctx, path, src)
	if err != nil {
		return src, false, err
	}
	if has {
		return src, false, nil
	}

	if ext == ".vue" {
		loc := scriptOpen.FindStringIndex(src)
		if loc == nil {
			return src, false, nil
		}
		out := src[:loc[1]] + "\n" + e.statement + src[loc[1]:]
		log.Debug().Str("file", path).Msg("Inserted import")
		return out, true, nil
	}

	pos, err := e.analyzer.FirstStatement(ctx, path, src)
	if err != nil {
		return src, false, err
	}
	insertion := e.statement + "\n"
	if pos > 0 && src[pos-1] != '\n' {
		insertion = "\n" + insertion
	}

	log.Debug().Str("file", path).Int("offset", pos).Msg("Inserted import")
	return src[:pos] + insertion + src[pos:], true, nil
}
