package rewrite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"i18n-extractor/internal/catalog"
	"i18n-extractor/internal/parser"
	"i18n-extractor/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replaceable locates lit in src and builds a replacement over it.
func replaceable(t *testing.T, src, lit, text, key string, ctxType parser.ContextType, needWrite bool) planner.Replaceable {
	t.Helper()
	start := strings.Index(src, lit)
	require.GreaterOrEqual(t, start, 0, "literal %q not found", lit)
	return planner.Replaceable{
		Occurrence: parser.Occurrence{
			Text:    text,
			Range:   parser.Range{Start: start, End: start + len(lit)},
			Context: ctxType,
		},
		Key:       key,
		NeedWrite: needWrite,
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		src     string
		lit     string
		ctxType parser.ContextType
		want    string
	}{
		{
			name:    "plain string in script",
			file:    "a.ts",
			src:     `const a = '提交';`,
			lit:     `'提交'`,
			ctxType: parser.PlainString,
			want:    `const a = I18N.common.submit;`,
		},
		{
			name:    "attribute value in markup",
			file:    "a.html",
			src:     `<input placeholder="提交">`,
			lit:     `"提交"`,
			ctxType: parser.PlainString,
			want:    `<input placeholder={{I18N.common.submit}}>`,
		},
		{
			name:    "equals sign in script stays plain",
			file:    "a.ts",
			src:     `a ='提交'`,
			lit:     `'提交'`,
			ctxType: parser.PlainString,
			want:    `a =I18N.common.submit`,
		},
		{
			name:    "jsx text",
			file:    "a.tsx",
			src:     `<div>提交</div>`,
			lit:     `提交`,
			ctxType: parser.MarkupExpression,
			want:    `<div>{I18N.common.submit}</div>`,
		},
		{
			name:    "vue template text",
			file:    "a.vue",
			src:     `<span>提交</span>`,
			lit:     `提交`,
			ctxType: parser.MarkupExpression,
			want:    `<span>{{I18N.common.submit}}</span>`,
		},
		{
			name:    "template slot",
			file:    "a.js",
			src:     "`共${n}提交`",
			lit:     "提交",
			ctxType: parser.TemplateLiteralSlot,
			want:    "`共${n}${I18N.common.submit}`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := replaceable(t, tt.src, tt.lit, "提交", "common.submit", tt.ctxType, true)
			got, err := Substitute(tt.src, tt.file, r, DefaultIdentifier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute_OutOfBounds(t *testing.T) {
	r := planner.Replaceable{Occurrence: parser.Occurrence{Range: parser.Range{Start: 3, End: 99}}, Key: "a"}
	_, err := Substitute("short", "a.ts", r, DefaultIdentifier)
	require.ErrorIs(t, err, ErrRangeOutOfBounds)
}

func TestApply_CommitsNewKey(t *testing.T) {
	c := catalog.New()
	e := NewEngine(c, "")

	src := `msg('第一行\n第二行')`
	r := replaceable(t, src, `'第一行\n第二行'`, `第一行\n第二行`, "a.lines", parser.PlainString, true)

	out, err := e.Apply("a.ts", src, r, true)
	require.NoError(t, err)
	assert.Equal(t, `msg(I18N.a.lines)`, out)

	v, ok := c.LookupValueByKey("a.lines")
	require.True(t, ok)
	assert.Equal(t, "第一行\n第二行", v)
}

func TestApply_ReuseDoesNotTouchCatalog(t *testing.T) {
	c := catalog.FromMap(map[string]string{"common.submit": "提交"})
	e := NewEngine(c, "I18N")

	src := `x('提交')`
	r := replaceable(t, src, `'提交'`, "提交", "common.submit", parser.PlainString, false)

	out, err := e.Apply("a.ts", src, r, true)
	require.NoError(t, err)
	assert.Equal(t, `x(I18N.common.submit)`, out)
	assert.Equal(t, 1, c.Len())
}

func TestApply_DuplicateKey(t *testing.T) {
	c := catalog.FromMap(map[string]string{"common.submit": "保存"})
	e := NewEngine(c, "I18N")

	src := `x('提交')`
	r := replaceable(t, src, `'提交'`, "提交", "common.submit", parser.PlainString, true)

	out, err := e.Apply("a.ts", src, r, true)
	require.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, src, out)

	v, _ := c.LookupValueByKey("common.submit")
	assert.Equal(t, "保存", v, "catalog must be unchanged")

	// Same text under the same key is not a duplicate.
	c.Set("common.submit", "提交")
	_, err = e.Apply("a.ts", src, r, true)
	require.NoError(t, err)
}

func TestApplyAll_PreservesUnrelatedBytes(t *testing.T) {
	src := strings.Repeat("abcdefghij", 5)
	rs := []planner.Replaceable{
		{Occurrence: parser.Occurrence{Text: "x", Range: parser.Range{Start: 20, End: 25}}, Key: "b", NeedWrite: true},
		{Occurrence: parser.Occurrence{Text: "y", Range: parser.Range{Start: 5, End: 10}}, Key: "a", NeedWrite: true},
		{Occurrence: parser.Occurrence{Text: "z", Range: parser.Range{Start: 40, End: 45}}, Key: "c", NeedWrite: true},
	}

	e := NewEngine(catalog.New(), "I18N")
	out, err := e.ApplyAll("a.ts", src, rs)
	require.NoError(t, err)

	want := src[:5] + "I18N.a" + src[10:20] + "I18N.b" + src[25:40] + "I18N.c" + src[45:]
	assert.Equal(t, want, out)
}

func TestApplyAll_RejectsOverlap(t *testing.T) {
	c := catalog.New()
	e := NewEngine(c, "I18N")
	src := strings.Repeat("-", 30)
	rs := []planner.Replaceable{
		{Occurrence: parser.Occurrence{Text: "a", Range: parser.Range{Start: 5, End: 12}}, Key: "a", NeedWrite: true},
		{Occurrence: parser.Occurrence{Text: "b", Range: parser.Range{Start: 10, End: 15}}, Key: "b", NeedWrite: true},
	}

	out, err := e.ApplyAll("a.ts", src, rs)
	require.ErrorIs(t, err, ErrOverlap)
	assert.Equal(t, src, out)
	assert.Equal(t, 0, c.Len())
}

func TestApplyAll_RejectsOutOfBounds(t *testing.T) {
	e := NewEngine(catalog.New(), "I18N")
	rs := []planner.Replaceable{
		{Occurrence: parser.Occurrence{Range: parser.Range{Start: 2, End: 4}}, Key: "a"},
		{Occurrence: parser.Occurrence{Range: parser.Range{Start: 8, End: 40}}, Key: "b"},
	}
	_, err := e.ApplyAll("a.ts", "0123456789", rs)
	require.ErrorIs(t, err, ErrRangeOutOfBounds)
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.tsx")
	src := "const title = '标题';\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	c := catalog.New()
	e := NewEngine(c, "I18N")
	r := replaceable(t, src, `'标题'`, "标题", "page.title", parser.PlainString, true)

	require.NoError(t, e.ReplaceFile(context.Background(), path, r, true))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "const title = I18N.page.title;\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	v, ok := c.LookupValueByKey("page.title")
	require.True(t, ok)
	assert.Equal(t, "标题", v)
}

func TestReplaceFile_DuplicateLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.ts")
	src := "x('标题')"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c := catalog.FromMap(map[string]string{"page.title": "别的"})
	e := NewEngine(c, "I18N")
	r := replaceable(t, src, `'标题'`, "标题", "page.title", parser.PlainString, true)

	err := e.ReplaceFile(context.Background(), path, r, true)
	require.ErrorIs(t, err, ErrDuplicateKey)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src, string(got))
}
