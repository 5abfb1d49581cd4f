package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"i18n-extractor/internal/catalog"
	"i18n-extractor/internal/filewalker"
	"i18n-extractor/internal/imports"
	"i18n-extractor/internal/planner"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importLine = "import I18N from 'src/utils/I18N';\n"

// mapSeeder answers from a fixed table. It fails on the mnemonic "坏" and returns no seeds
// at all for "空".
type mapSeeder map[string]string

func (m mapSeeder) Seeds(_ context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		switch t {
		case "坏":
			return nil, errors.New("provider down")
		case "空":
			return []string{}, nil
		}
		out[i] = m[t]
	}
	return out, nil
}

var seeds = mapSeeder{"提交": "tijiao", "取消": "quxiao", "标题": "title", "你好": "hello"}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func run(t *testing.T, dir string, c *catalog.Catalog, opts Options) *Summary {
	t.Helper()
	entries, err := filewalker.NewWalker(filewalker.Options{
		Exclude: []string{filepath.Join(dir, ".kiwi")},
	}).Walk(dir)
	require.NoError(t, err)

	if opts.Root == "" {
		opts.Root = dir
	}
	if opts.CatalogPath == "" {
		opts.CatalogPath = filepath.Join(dir, ".kiwi", "zh-CN", "index.json")
	}
	x := New(c, seeds, imports.NewEnsurer(nil, "", ""), opts)
	summary, err := x.Run(context.Background(), entries)
	require.NoError(t, err)
	return summary
}

func TestRun_DedupWithinFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pages", "user", "list.tsx")
	write(t, file, "const a = '提交';\nconst b = '取消';\nconst c = '提交';\n")

	c := catalog.New()
	summary := run(t, dir, c, Options{})

	assert.Equal(t, importLine+
		"const a = I18N.pages.user.list.tijiao;\n"+
		"const b = I18N.pages.user.list.quxiao;\n"+
		"const c = I18N.pages.user.list.tijiao;\n", read(t, file))

	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 3, summary.Occurrences)
	assert.Equal(t, 2, summary.NewKeys)
	assert.Equal(t, 1, summary.ImportsAdded)

	persisted, err := catalog.Load(filepath.Join(dir, ".kiwi", "zh-CN", "index.json"))
	require.NoError(t, err)
	want := map[string]string{
		"pages.user.list.tijiao": "提交",
		"pages.user.list.quxiao": "取消",
	}
	if diff := cmp.Diff(want, persisted.Flatten()); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ReusesExistingKeyAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "form.ts")
	write(t, file, "export const label = '提交';\n")

	c := catalog.FromMap(map[string]string{"common.submit": "提交"})
	summary := run(t, dir, c, Options{})
	assert.Equal(t, 0, summary.NewKeys)
	assert.Equal(t, 1, summary.ReusedKeys)

	first := read(t, file)
	assert.Equal(t, importLine+"export const label = I18N.common.submit;\n", first)

	// Nothing left to extract on a second pass.
	summary = run(t, dir, c, Options{})
	assert.Equal(t, 0, summary.Changed)
	assert.Equal(t, first, read(t, file))
	assert.Equal(t, 1, c.Len())
}

func TestRun_ExplicitPrefix(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.js")
	write(t, file, "import I18N from '@/i18n';\nalert('取消');\n")

	c := catalog.New()
	run(t, dir, c, Options{Prefix: "I18N.common"})

	assert.Equal(t, "import I18N from '@/i18n';\nalert(I18N.common.quxiao);\n", read(t, file))
	v, ok := c.LookupValueByKey("common.quxiao")
	require.True(t, ok)
	assert.Equal(t, "取消", v)
}

func TestRun_FailingFileIsContained(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.ts")
	bad := filepath.Join(dir, "bad.ts")
	write(t, good, "x('标题');\n")
	write(t, bad, "x('坏');\n")

	c := catalog.New()
	summary := run(t, dir, c, Options{})

	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, bad, summary.Failures[0].File)

	assert.Equal(t, "x('坏');\n", read(t, bad))
	assert.Equal(t, importLine+"x(I18N.good.title);\n", read(t, good))

	want := map[string]string{"good.title": "标题"}
	if diff := cmp.Diff(want, c.Flatten()); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_VueComponent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "components", "card.vue")
	write(t, file, "<template>\n  <div title=\"标题\">你好</div>\n</template>\n<script>\nexport default {};\n</script>\n")

	c := catalog.New()
	run(t, dir, c, Options{})

	assert.Equal(t, "<template>\n"+
		"  <div title={{I18N.components.card.title}}>{{I18N.components.card.hello}}</div>\n"+
		"</template>\n"+
		"<script>\n"+importLine+"export default {};\n</script>\n", read(t, file))
	assert.Equal(t, 2, c.Len())
}

func TestRun_CollisionWithOtherText(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "user.ts")
	write(t, file, "x('标题');\n")

	c := catalog.FromMap(map[string]string{"user.title": "旧标题"})
	run(t, dir, c, Options{})

	assert.Equal(t, importLine+"x(I18N.user.title2);\n", read(t, file))
	v, _ := c.LookupValueByKey("user.title")
	assert.Equal(t, "旧标题", v)
	v, _ = c.LookupValueByKey("user.title2")
	assert.Equal(t, "标题", v)
}

func TestRun_CatalogWriteFailure(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.ts"), "x('标题');\n")

	// A regular file where the catalog directory should be.
	blocker := filepath.Join(dir, "blocked")
	write(t, blocker, "")

	entries, err := filewalker.NewWalker(filewalker.Options{}).Walk(dir)
	require.NoError(t, err)

	x := New(catalog.New(), seeds, nil, Options{Root: dir, CatalogPath: filepath.Join(blocker, "zh-CN", "index.json")})
	summary, err := x.Run(context.Background(), entries)
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Changed)
}

func TestRun_EmptySeedsSkipFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.ts")
	good := filepath.Join(dir, "good.ts")
	write(t, empty, "x('空');\n")
	write(t, good, "x('取消');\n")

	c := catalog.New()
	summary := run(t, dir, c, Options{})

	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, empty, summary.Failures[0].File)
	assert.ErrorIs(t, summary.Failures[0].Err, planner.ErrEmptyTranslation)

	assert.Equal(t, "x('空');\n", read(t, empty))
	assert.Equal(t, importLine+"x(I18N.good.quxiao);\n", read(t, good))
	assert.Equal(t, map[string]string{"good.quxiao": "取消"}, c.Flatten())
}

func TestRun_WriteFailureKeepsCommittedKeys(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a", "first.ts")
	second := filepath.Join(dir, "b", "second.ts")
	write(t, first, "x('取消');\n")
	write(t, second, "x('提交');\n")

	// Once the first file is done, swap the second file's directory for a regular file so
	// writing it back fails.
	blockSecond := func(file string) {
		if file != first {
			return
		}
		require.NoError(t, os.RemoveAll(filepath.Dir(second)))
		require.NoError(t, os.WriteFile(filepath.Dir(second), nil, 0o644))
	}

	c := catalog.New()
	summary := run(t, dir, c, Options{OnFile: blockSecond})

	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.ErrorIs(t, summary.Failures[0].Err, ErrWriteFailure)

	want := map[string]string{"a.first.quxiao": "取消", "b.second.tijiao": "提交"}
	if diff := cmp.Diff(want, c.Flatten()); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}

	persisted, err := catalog.Load(filepath.Join(dir, ".kiwi", "zh-CN", "index.json"))
	require.NoError(t, err)
	if diff := cmp.Diff(want, persisted.Flatten()); diff != "" {
		t.Errorf("persisted catalog mismatch (-want +got):\n%s", diff)
	}
}
