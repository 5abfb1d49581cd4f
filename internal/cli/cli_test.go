package cli

import (
	"testing"

	"i18n-extractor/internal/catalog"
	"i18n-extractor/internal/parser"
	"i18n-extractor/internal/rewrite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceableFromRange(t *testing.T) {
	src := `const a = '提交';`
	start := len(`const a = `)
	end := len(src) - 1

	c := catalog.FromMap(map[string]string{"common.submit": "提交"})

	r, err := replaceableFromRange(src, start, end, "common.submit", parser.PlainString, c)
	require.NoError(t, err)
	assert.Equal(t, "提交", r.Occurrence.Text)
	assert.False(t, r.NeedWrite)

	r, err = replaceableFromRange(src, start, end, "common.ok", parser.PlainString, c)
	require.NoError(t, err)
	assert.True(t, r.NeedWrite)

	r, err = replaceableFromRange(src, start+1, end-1, "common.ok", parser.MarkupExpression, c)
	require.NoError(t, err)
	assert.Equal(t, "提交", r.Occurrence.Text)
}

func TestReplaceableFromRange_Invalid(t *testing.T) {
	c := catalog.New()

	_, err := replaceableFromRange("abc", 2, 9, "k", parser.PlainString, c)
	assert.ErrorIs(t, err, rewrite.ErrRangeOutOfBounds)

	_, err = replaceableFromRange("abc", 0, 1, "", parser.PlainString, c)
	assert.Error(t, err)
}

func TestSuggestionRoot(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, suggestionRoot(dir))
	assert.NotEqual(t, dir, suggestionRoot(dir+"/a.ts,"+dir+"/b.ts"))
}
