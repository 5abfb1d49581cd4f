package graph

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"i18n-extractor/internal/keygen"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Term maps a mnemonic to the seed a catalog key was built from.
type Term struct {
	Mnemonic string
	Seed     string
	// Key and Text record the catalog entry the term was learned from.
	Key  string
	Text string
}

// Glossary stores curated mnemonic→seed terms in Neo4j. Keys are linked to the term
// they were seeded by, so renamed keys keep their history.
type Glossary struct {
	driver neo4j.DriverWithContext
}

// NewGlossary creates a glossary on an open driver.
func NewGlossary(driver neo4j.DriverWithContext) *Glossary {
	return &Glossary{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (g *Glossary) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Term) REQUIRE t.mnemonic IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (k:Key) REQUIRE k.name IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// Upsert merges terms and their source keys.
func (g *Glossary) Upsert(ctx context.Context, terms []Term) (int, error) {
	if len(terms) == 0 {
		return 0, nil
	}

	rows := make([]map[string]any, len(terms))
	for i, t := range terms {
		rows[i] = map[string]any{
			"mnemonic": t.Mnemonic,
			"seed":     t.Seed,
			"key":      t.Key,
			"text":     t.Text,
		}
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		UNWIND $terms AS term
		MERGE (t:Term {mnemonic: term.mnemonic})
		SET t.seed = term.seed
		MERGE (k:Key {name: term.key})
		SET k.text = term.text
		MERGE (k)-[:SEEDED_BY]->(t)
	`, map[string]any{"terms": rows})
	if err != nil {
		return 0, fmt.Errorf("upsert terms: %w", err)
	}

	log.Info().Int("terms", len(terms)).Msg("Upserted glossary terms")
	return len(terms), nil
}

var collisionSuffix = regexp.MustCompile(`(_\d+|\d+)$`)

// TermsFromCatalog derives glossary terms from catalog entries: the mnemonic of each
// text is paired with the last key segment, minus any collision suffix. Entries whose
// seed is just the mnemonic again teach nothing and are dropped. When several keys share
// a mnemonic the first key in sorted order wins.
func TermsFromCatalog(entries map[string]string) []Term {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]bool)
	var terms []Term
	for _, key := range keys {
		text := entries[key]
		m := keygen.Mnemonic(text)
		if m == keygen.Placeholder || seen[m] {
			continue
		}

		seed := key
		if i := strings.LastIndex(key, "."); i >= 0 {
			seed = key[i+1:]
		}
		seed = collisionSuffix.ReplaceAllString(seed, "")
		if seed == "" || seed == m {
			continue
		}

		seen[m] = true
		terms = append(terms, Term{Mnemonic: m, Seed: seed, Key: key, Text: text})
	}
	return terms
}
