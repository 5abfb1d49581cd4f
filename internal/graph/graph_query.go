package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Lookup returns the seeds known for the given mnemonics.
func (g *Glossary) Lookup(ctx context.Context, mnemonics []string) (map[string]string, error) {
	terms := make(map[string]string)
	if len(mnemonics) == 0 {
		return terms, nil
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:Term)
		WHERE t.mnemonic IN $mnemonics
		RETURN t.mnemonic AS mnemonic, t.seed AS seed
	`, map[string]any{"mnemonics": mnemonics})
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}

	for result.Next(ctx) {
		record := result.Record()
		mnemonic, _ := record.Get("mnemonic")
		seed, _ := record.Get("seed")
		terms[fmt.Sprintf("%v", mnemonic)] = fmt.Sprintf("%v", seed)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}

	log.Debug().Int("requested", len(mnemonics)).Int("found", len(terms)).Msg("Glossary lookup complete")
	return terms, nil
}

// All retrieves every term as a mnemonic→seed map.
func (g *Glossary) All(ctx context.Context) (map[string]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:Term)
		RETURN t.mnemonic AS mnemonic, t.seed AS seed
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("get all terms: %w", err)
	}

	terms := make(map[string]string)
	for result.Next(ctx) {
		record := result.Record()
		mnemonic, _ := record.Get("mnemonic")
		seed, _ := record.Get("seed")
		terms[fmt.Sprintf("%v", mnemonic)] = fmt.Sprintf("%v", seed)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read all terms: %w", err)
	}

	log.Info().Int("count", len(terms)).Msg("Loaded glossary from graph")
	return terms, nil
}
