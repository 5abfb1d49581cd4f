package filewalker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("const a = '中文';\n"), 0o644))
	}
}

func relPaths(t *testing.T, root string, entries []FileEntry) []string {
	t.Helper()
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		rel, err := filepath.Rel(absRoot, e.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestWalk_FiltersAndIgnores(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"src/a.ts",
		"src/b.tsx",
		"src/page.vue",
		"src/readme.md",
		"src/a.test.ts",
		"node_modules/lib/index.js",
		".kiwi/zh-CN/index.ts",
		"src/generated/api.ts",
	)

	w := NewWalker(Options{
		IgnoreGlobs: []string{"**/*.test.ts", "src/generated/**"},
		Exclude:     []string{filepath.Join(root, ".kiwi")},
	})
	entries, err := w.Walk(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.ts", "src/b.tsx", "src/page.vue"}, relPaths(t, root, entries))

	for _, e := range entries {
		require.NotNil(t, e.Parser)
		assert.True(t, e.Parser.CanParse(e.Ext))
	}
}

func TestResolve_CommaSeparatedFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "src/a.ts", "src/b.js", "src/c.md", ".kiwi/zh-CN/index.js")

	w := NewWalker(Options{Exclude: []string{filepath.Join(root, ".kiwi")}})
	target := strings.Join([]string{
		filepath.Join(root, "src/a.ts"),
		filepath.Join(root, "src/b.js"),
		filepath.Join(root, "src/c.md"),
		filepath.Join(root, ".kiwi/zh-CN/index.js"),
		filepath.Join(root, "src/missing.ts"),
	}, ",")

	entries, err := w.Resolve(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "src/b.js"}, relPaths(t, root, entries))
}

func TestResolve_Directory(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.ts", "sub/b.html")

	entries, err := NewWalker(Options{}).Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "sub/b.html"}, relPaths(t, root, entries))
}

func TestWalk_NotADirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.ts")
	_, err := NewWalker(Options{}).Walk(filepath.Join(root, "a.ts"))
	require.Error(t, err)
}
