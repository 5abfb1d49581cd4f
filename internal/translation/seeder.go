package translation

import (
	"context"
	"fmt"

	"i18n-extractor/internal/cache"
	"i18n-extractor/internal/worker"

	"github.com/rs/zerolog/log"
)

// Seeder turns mnemonics into seed strings, index-aligned with the input.
// A blank seed means "no answer" and makes the caller fall back to the mnemonic.
type Seeder interface {
	Seeds(ctx context.Context, texts []string) ([]string, error)
}

// MnemonicSeeder uses each mnemonic as its own seed. It needs no network access.
type MnemonicSeeder struct{}

func NewMnemonicSeeder() *MnemonicSeeder { return &MnemonicSeeder{} }

func (MnemonicSeeder) Seeds(_ context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}

// CachedSeeder answers from a SeedCache and sends only unseen mnemonics, in batches,
// to the wrapped seeder.
type CachedSeeder struct {
	next      Seeder
	cache     *cache.SeedCache
	batchSize int
}

func NewCachedSeeder(next Seeder, c *cache.SeedCache, batchSize int) *CachedSeeder {
	return &CachedSeeder{next: next, cache: c, batchSize: batchSize}
}

func (s *CachedSeeder) Seeds(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	seen := make(map[string]bool)
	var missing []string
	for i, t := range texts {
		if v, ok := s.cache.Get(ctx, t); ok {
			out[i] = v
			continue
		}
		if !seen[t] {
			seen[t] = true
			missing = append(missing, t)
		}
	}

	resolved := make(map[string]string, len(missing))
	batches := worker.Batch(missing, s.batchSize)
	for batchIdx, batch := range batches {
		log.Debug().
			Int("batch", batchIdx+1).
			Int("total_batches", len(batches)).
			Int("size", len(batch)).
			Msg("Requesting seeds")

		seeds, err := s.next.Seeds(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("seed batch %d: %w", batchIdx+1, err)
		}
		for j, t := range batch {
			if j >= len(seeds) || seeds[j] == "" {
				continue
			}
			resolved[t] = seeds[j]
			if err := s.cache.Set(ctx, t, seeds[j]); err != nil {
				log.Warn().Err(err).Str("text", t).Msg("Failed to cache seed")
			}
		}
	}

	for i, t := range texts {
		if out[i] == "" {
			out[i] = resolved[t]
		}
	}
	return out, nil
}

// Glossary looks up curated seeds for mnemonics.
type Glossary interface {
	Lookup(ctx context.Context, mnemonics []string) (map[string]string, error)
}

// GlossarySeeder prefers curated glossary seeds and asks the wrapped seeder for the rest.
type GlossarySeeder struct {
	glossary Glossary
	next     Seeder
}

func NewGlossarySeeder(g Glossary, next Seeder) *GlossarySeeder {
	return &GlossarySeeder{glossary: g, next: next}
}

func (s *GlossarySeeder) Seeds(ctx context.Context, texts []string) ([]string, error) {
	terms, err := s.glossary.Lookup(ctx, texts)
	if err != nil {
		log.Warn().Err(err).Msg("Glossary lookup failed, continuing without it")
		terms = nil
	}

	out := make([]string, len(texts))
	var missing []int
	for i, t := range texts {
		if v, ok := terms[t]; ok && v != "" {
			out[i] = v
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	rest := make([]string, len(missing))
	for j, i := range missing {
		rest[j] = texts[i]
	}
	seeds, err := s.next.Seeds(ctx, rest)
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		if j < len(seeds) {
			out[i] = seeds[j]
		}
	}
	return out, nil
}
