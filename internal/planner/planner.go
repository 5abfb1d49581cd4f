package planner

import (
	"errors"
	"fmt"
	"strings"

	"i18n-extractor/internal/catalog"
	"i18n-extractor/internal/keygen"
	"i18n-extractor/internal/parser"
	"i18n-extractor/internal/textutil"

	"github.com/rs/zerolog/log"
)

// ErrEmptyTranslation: no seed strings were produced for a file's occurrences.
var ErrEmptyTranslation = errors.New("empty translation result")

// Replaceable is the resolved edit for one occurrence.
type Replaceable struct {
	Occurrence parser.Occurrence
	// Key is the dotted catalog key, without the reference identifier.
	Key string
	// NeedWrite is false when Key already holds the text in the catalog.
	NeedWrite bool
}

// Input is one file's batch.
type Input struct {
	File string
	// Namespace is the key prefix for new keys (explicit prefix or path suggestion).
	Namespace string
	// Occurrences in the order they will be applied (descending offset).
	Occurrences []parser.Occurrence
	// Seeds are index-aligned with Occurrences.
	Seeds []string
}

type assignment struct {
	key       string
	needWrite bool
}

// Planner resolves occurrences to keys against a catalog.
type Planner struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Planner {
	return &Planner{catalog: c}
}

// Plan assigns a key to every occurrence of in. New keys are only provisional: the base
// catalog is left untouched until the rewrite engine commits them.
func (p *Planner) Plan(in Input) ([]Replaceable, error) {
	if len(in.Occurrences) == 0 {
		return nil, nil
	}
	if len(in.Seeds) == 0 {
		return nil, fmt.Errorf("plan %s: %w", in.File, ErrEmptyTranslation)
	}

	fragments := make([]string, len(in.Occurrences))
	for i, occ := range in.Occurrences {
		seed := ""
		if i < len(in.Seeds) {
			seed = strings.TrimSpace(in.Seeds[i])
		}
		if seed == "" {
			seed = keygen.Mnemonic(occ.Text)
		}
		fragments[i] = keygen.Fragment(seed)
	}
	// The collision loop decides keys; the suffix pass only reports fragments that land on
	// keys already nested under the namespace.
	if children := p.catalog.Children(in.Namespace); len(children) > 0 {
		for i, f := range keygen.DedupFragments(children, fragments) {
			if f != fragments[i] {
				log.Debug().Str("file", in.File).Str("fragment", fragments[i]).Str("suffixed", f).
					Msg("Fragment already used under namespace")
			}
		}
	}

	overlay := p.catalog.Overlay()
	synth := keygen.NewSynthesizer(overlay)
	memory := make(map[string]assignment)

	out := make([]Replaceable, 0, len(in.Occurrences))
	for i, occ := range in.Occurrences {
		text := textutil.UnescapeNewlines(occ.Text)

		if key, ok := p.catalog.LookupKeyByValue(text); ok {
			memory[text] = assignment{key: key}
			out = append(out, Replaceable{Occurrence: occ, Key: key})
			continue
		}

		// Repeats keep the first assignment's NeedWrite; committing the same pair twice
		// would change nothing.
		if a, ok := memory[text]; ok {
			out = append(out, Replaceable{Occurrence: occ, Key: a.key, NeedWrite: a.needWrite})
			continue
		}

		key := synth.Synthesize(in.Namespace, fragments[i], text)
		overlay.Set(key, text)
		memory[text] = assignment{key: key, needWrite: true}
		out = append(out, Replaceable{Occurrence: occ, Key: key, NeedWrite: true})
	}

	log.Debug().
		Str("file", in.File).
		Int("occurrences", len(out)).
		Int("new_keys", overlay.Pending()).
		Msg("Planned replacements")

	return out, nil
}
