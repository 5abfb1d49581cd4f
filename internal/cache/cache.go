package cache

import (
	"context"
	"errors"
	"fmt"

	"i18n-extractor/internal/textutil"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// DefaultSize is the number of seeds kept in memory.
const DefaultSize = 1024

// DB is the part of *pgxpool.Pool the cache uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS key_seeds (
	hash       TEXT PRIMARY KEY,
	scope      TEXT NOT NULL,
	source     TEXT NOT NULL,
	seed       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SeedCache remembers the seed produced for a mnemonic so repeated runs stay stable and
// do not call the provider again. Memory is an LRU; PostgreSQL is optional.
type SeedCache struct {
	db     DB
	memory *lru.Cache[string, string]
	// scope separates providers and language pairs sharing one table.
	scope string
}

// NewSeedCache creates a cache. db may be nil for a memory-only cache.
func NewSeedCache(db DB, size int, scope string) (*SeedCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	memory, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create seed cache: %w", err)
	}
	return &SeedCache{db: db, memory: memory, scope: scope}, nil
}

func (c *SeedCache) hash(source string) string {
	return textutil.Hash(c.scope + "\x00" + source)
}

// EnsureSchema creates the key_seeds table.
func (c *SeedCache) EnsureSchema(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	if _, err := c.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create key_seeds table: %w", err)
	}
	return nil
}

// Get returns the cached seed for source.
func (c *SeedCache) Get(ctx context.Context, source string) (string, bool) {
	h := c.hash(source)
	if v, ok := c.memory.Get(h); ok {
		return v, true
	}
	if c.db == nil {
		return "", false
	}

	var seed string
	err := c.db.QueryRow(ctx, `SELECT seed FROM key_seeds WHERE hash = $1`, h).Scan(&seed)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Debug().Err(err).Str("text", textutil.Truncate(source, 30)).Msg("Seed cache lookup failed")
		}
		return "", false
	}

	c.memory.Add(h, seed)
	return seed, true
}

// Set stores a seed in memory and, when configured, in PostgreSQL.
func (c *SeedCache) Set(ctx context.Context, source, seed string) error {
	h := c.hash(source)
	c.memory.Add(h, seed)
	if c.db == nil {
		return nil
	}

	_, err := c.db.Exec(ctx, `
		INSERT INTO key_seeds (hash, scope, source, seed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash) DO UPDATE SET seed = EXCLUDED.seed, updated_at = now()
	`, h, c.scope, source, seed)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Preload fills the memory layer with the most recent seeds of this scope.
func (c *SeedCache) Preload(ctx context.Context) error {
	if c.db == nil {
		return nil
	}

	rows, err := c.db.Query(ctx,
		`SELECT hash, seed FROM key_seeds WHERE scope = $1 ORDER BY updated_at DESC LIMIT $2`,
		c.scope, DefaultSize)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var h, seed string
		if err := rows.Scan(&h, &seed); err != nil {
			return fmt.Errorf("scan cached seed: %w", err)
		}
		c.memory.ContainsOrAdd(h, seed)
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	log.Info().Int("count", count).Str("scope", c.scope).Msg("Preloaded seed cache")
	return nil
}

// Len is the number of seeds held in memory.
func (c *SeedCache) Len() int { return c.memory.Len() }
