package keygen

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"i18n-extractor/internal/textutil"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MnemonicLength is the number of runes kept from a text for its mnemonic.
	MnemonicLength = 5
	// Placeholder replaces a mnemonic when the text has no letters or ideographs.
	Placeholder = "symbolic-text"
)

// Mnemonic keeps the first MnemonicLength ASCII letters and Han ideographs of text.
func Mnemonic(text string) string {
	var b strings.Builder
	n := 0
	for _, r := range text {
		if !textutil.IsMnemonicRune(r) {
			continue
		}
		b.WriteRune(r)
		n++
		if n == MnemonicLength {
			break
		}
	}
	if n == 0 {
		return Placeholder
	}
	return b.String()
}

// Mnemonics maps Mnemonic over texts.
func Mnemonics(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Mnemonic(t)
	}
	return out
}

// Fragment turns a seed into a camel-cased, identifier-safe key segment.
func Fragment(seed string) string {
	ws := words(seed)
	if len(ws) == 0 {
		ws = words(Placeholder)
	}

	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)

	var b strings.Builder
	for i, w := range ws {
		if i == 0 {
			b.WriteString(lower.String(w))
			continue
		}
		b.WriteString(title.String(w))
	}

	out := b.String()
	if r := []rune(out)[0]; unicode.IsDigit(r) {
		out = "_" + out
	}
	return out
}

// words splits s on non letter/digit runes and on lower→upper transitions.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	var prev rune
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			prev = 0
			continue
		}
		if unicode.IsUpper(r) && prev != 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			flush()
		}
		cur = append(cur, r)
		prev = r
	}
	flush()
	return out
}

// Suggest derives the key namespace segments of filePath relative to root:
// directory names followed by the file stem, each sanitized.
func Suggest(filePath, root string) []string {
	rel := filePath
	if absFile, err := filepath.Abs(filePath); err == nil {
		if absRoot, err := filepath.Abs(root); err == nil && root != "" {
			if r, err := filepath.Rel(absRoot, absFile); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
				rel = r
			}
		}
	}
	if filepath.IsAbs(rel) {
		rel = filepath.Base(rel)
	}

	names := strings.Split(filepath.ToSlash(filepath.Clean(rel)), "/")
	var out []string
	for _, d := range names[:len(names)-1] {
		if d == "" || d == "." || d == ".." {
			continue
		}
		out = append(out, Sanitize(d))
	}
	stem, _, _ := strings.Cut(names[len(names)-1], ".")
	if s := Sanitize(stem); s != "" {
		out = append(out, s)
	}
	return out
}

// Sanitize makes a path segment identifier-safe.
func Sanitize(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "_" + out
	}
	return out
}

// TrimReference strips a leading "<ident>." from an explicit namespace prefix.
func TrimReference(prefix, ident string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if ident != "" {
		prefix = strings.TrimPrefix(prefix, ident+".")
	}
	return prefix
}

// Namespace picks the explicit prefix when set, otherwise the joined suggestion.
func Namespace(prefix string, suggestion []string) string {
	if prefix != "" {
		return prefix
	}
	return strings.Join(suggestion, ".")
}

// Join appends fragment to namespace.
func Join(namespace, fragment string) string {
	if namespace == "" {
		return fragment
	}
	return namespace + "." + fragment
}

// DedupFragments appends _1, _2, … to fragments that collide with child keys already
// present under the file namespace. The counter is kept per fragment.
func DedupFragments(existing, fragments []string) []string {
	history := make(map[string]int, len(existing))
	for _, k := range existing {
		history[k] = 0
	}

	out := make([]string, len(fragments))
	for i, f := range fragments {
		n, ok := history[f]
		if !ok {
			out[i] = f
			continue
		}
		n++
		history[f] = n
		out[i] = f + "_" + strconv.Itoa(n)
	}
	return out
}
