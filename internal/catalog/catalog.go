package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"i18n-extractor/internal/safeio"

	"github.com/rs/zerolog/log"
)

var (
	// ErrMalformedCatalog: the persisted catalog exists but is not a nested string map.
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrKeyShadowed: a key is both a leaf and the parent of other keys.
	ErrKeyShadowed = errors.New("key shadowed")
)

const moduleWrapper = "export default"

// Catalog maps dotted keys to source text. It is owned by a single flow and not
// safe for concurrent use.
type Catalog struct {
	entries map[string]string
	byValue map[string]string // text → first key in sorted order
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries: make(map[string]string),
		byValue: make(map[string]string),
	}
}

// FromMap builds a catalog from a flat key→text mapping.
func FromMap(m map[string]string) *Catalog {
	c := New()
	for k, v := range m {
		c.entries[k] = v
	}
	c.reindex()
	return c
}

// Load reads the catalog at path. A missing file yields an empty catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("No catalog found, starting empty")
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	log.Info().Int("keys", c.Len()).Str("path", path).Msg("Loaded catalog")
	return c, nil
}

// Parse decodes a nested JSON object (optionally wrapped in `export default …;`).
func Parse(data []byte) (*Catalog, error) {
	body := bytes.TrimSpace(data)
	body = bytes.TrimPrefix(body, []byte{0xEF, 0xBB, 0xBF})
	if bytes.HasPrefix(body, []byte(moduleWrapper)) {
		body = bytes.TrimSpace(body[len(moduleWrapper):])
		body = bytes.TrimSuffix(body, []byte(";"))
	}
	if len(body) == 0 {
		return New(), nil
	}

	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}

	c := New()
	if err := flatten("", tree, c.entries); err != nil {
		return nil, err
	}
	c.reindex()
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: key %q holds %T, want string or object", ErrMalformedCatalog, key, v)
		}
	}
	return nil
}

func (c *Catalog) reindex() {
	c.byValue = make(map[string]string, len(c.entries))
	for _, k := range c.Keys() {
		if _, ok := c.byValue[c.entries[k]]; !ok {
			c.byValue[c.entries[k]] = k
		}
	}
}

// LookupKeyByValue returns the key holding exactly text.
func (c *Catalog) LookupKeyByValue(text string) (string, bool) {
	k, ok := c.byValue[text]
	return k, ok
}

// LookupValueByKey returns the text stored under key.
func (c *Catalog) LookupValueByKey(key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Set inserts or overwrites key.
func (c *Catalog) Set(key, text string) {
	if old, ok := c.entries[key]; ok {
		if old == text {
			return
		}
		c.entries[key] = text
		if c.byValue[old] == key {
			c.reindex()
			return
		}
	} else {
		c.entries[key] = text
	}
	if cur, ok := c.byValue[text]; !ok || key < cur {
		c.byValue[text] = key
	}
}

// Len returns the number of keys.
func (c *Catalog) Len() int { return len(c.entries) }

// Keys returns all keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten returns a copy of the key→text mapping.
func (c *Catalog) Flatten() map[string]string {
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Children returns the distinct child segment names directly below namespace.
func (c *Catalog) Children(namespace string) []string {
	return children(c.entries, namespace)
}

// Conflicts reports whether key cannot become a leaf: it is already a branch, or one of
// its ancestors is a leaf.
func (c *Catalog) Conflicts(key string) bool {
	return conflicts(c.entries, key)
}

func children(entries map[string]string, namespace string) []string {
	prefix := ""
	if namespace != "" {
		prefix = namespace + "."
	}
	seen := make(map[string]struct{})
	var out []string
	for k := range entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		seg, _, _ := strings.Cut(k[len(prefix):], ".")
		if _, ok := seen[seg]; ok {
			continue
		}
		seen[seg] = struct{}{}
		out = append(out, seg)
	}
	sort.Strings(out)
	return out
}

func conflicts(entries map[string]string, key string) bool {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			if _, ok := entries[key[:i]]; ok {
				return true
			}
		}
	}
	branch := key + "."
	for k := range entries {
		if strings.HasPrefix(k, branch) {
			return true
		}
	}
	return false
}

// Marshal renders the catalog as a nested, 2-space indented object. Paths ending in
// .ts or .js are wrapped as an ES module default export.
func (c *Catalog) Marshal(path string) ([]byte, error) {
	tree := make(map[string]any)
	for _, k := range c.Keys() {
		if err := insert(tree, strings.Split(k, "."), c.entries[k]); err != nil {
			return nil, fmt.Errorf("%w: %s", err, k)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".js":
		body := bytes.TrimRight(buf.Bytes(), "\n")
		return []byte(moduleWrapper + " " + string(body) + ";\n"), nil
	}
	return buf.Bytes(), nil
}

func insert(tree map[string]any, segs []string, text string) error {
	node := tree
	for _, seg := range segs[:len(segs)-1] {
		switch next := node[seg].(type) {
		case nil:
			child := make(map[string]any)
			node[seg] = child
			node = child
		case map[string]any:
			node = next
		default:
			return ErrKeyShadowed
		}
	}
	last := segs[len(segs)-1]
	if _, ok := node[last]; ok {
		return ErrKeyShadowed
	}
	node[last] = text
	return nil
}

// Persist writes the catalog to path atomically.
func (c *Catalog) Persist(path string) error {
	data, err := c.Marshal(path)
	if err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	if err := safeio.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}

	log.Info().Int("keys", c.Len()).Str("path", path).Msg("Catalog persisted")
	return nil
}
