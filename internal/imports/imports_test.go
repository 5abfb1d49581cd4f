package imports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stmt = "import I18N from 'src/utils/I18N';"

func TestHasImport(t *testing.T) {
	ctx := context.Background()
	e := NewEnsurer(NewTreeSitterAnalyzer(), stmt, "I18N")

	tests := []struct {
		name string
		path string
		src  string
		want bool
	}{
		{"default import", "a.ts", "import I18N from 'src/utils/I18N';\nconst a = 1;\n", true},
		{"named import", "a.tsx", "import { I18N } from '@/i18n';\n", true},
		{"aliased default", "a.js", "import { default as I18N } from './i18n';\n", true},
		{"namespace import", "a.ts", "import * as I18N from './i18n';\n", true},
		{"other binding", "a.ts", "import React from 'react';\nconst I18N = 1;\n", false},
		{"alias hides name", "a.ts", "import { I18N as T } from './i18n';\n", false},
		{"vue script", "a.vue", "<template><p>x</p></template>\n<script lang=\"ts\">\nimport I18N from '@/i18n';\n</script>\n", true},
		{"vue without script", "a.vue", "<template><p>x</p></template>\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.HasImport(ctx, tt.path, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsure_ScriptFiles(t *testing.T) {
	ctx := context.Background()
	e := NewEnsurer(nil, stmt, "I18N")

	tests := []struct {
		name string
		path string
		src  string
		want string
	}{
		{
			name: "before first import",
			path: "a.tsx",
			src:  "import React from 'react';\nexport const A = () => <div>{I18N.a}</div>;\n",
			want: stmt + "\nimport React from 'react';\nexport const A = () => <div>{I18N.a}</div>;\n",
		},
		{
			name: "after leading comments and hash-bang",
			path: "cli.js",
			src:  "#!/usr/bin/env node\n// entry\nconst a = I18N.a;\n",
			want: "#!/usr/bin/env node\n// entry\n" + stmt + "\nconst a = I18N.a;\n",
		},
		{
			name: "empty file",
			path: "a.ts",
			src:  "",
			want: stmt + "\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := e.Ensure(ctx, tt.path, tt.src)
			require.NoError(t, err)
			assert.True(t, changed)
			assert.Equal(t, tt.want, got)

			// Idempotent.
			again, changed, err := e.Ensure(ctx, tt.path, got)
			require.NoError(t, err)
			assert.False(t, changed)
			assert.Equal(t, got, again)
		})
	}
}

func TestEnsure_Vue(t *testing.T) {
	ctx := context.Background()
	e := NewEnsurer(nil, stmt, "I18N")

	src := "<template>\n  <p>{{I18N.a}}</p>\n</template>\n<script>\nexport default {};\n</script>\n"
	got, changed, err := e.Ensure(ctx, "page.vue", src)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "<template>\n  <p>{{I18N.a}}</p>\n</template>\n<script>\n"+stmt+"\nexport default {};\n</script>\n", got)

	_, changed, err = e.Ensure(ctx, "page.vue", got)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestEnsure_HTMLUnchanged(t *testing.T) {
	src := "<p>{{I18N.a}}</p>\n"
	got, changed, err := NewEnsurer(nil, "", "").Ensure(context.Background(), "index.html", src)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, src, got)
}

func TestFirstStatement(t *testing.T) {
	a := NewTreeSitterAnalyzer()
	ctx := context.Background()

	pos, err := a.FirstStatement(ctx, "a.ts", "/* header */\nlet x = 1;\n")
	require.NoError(t, err)
	assert.Equal(t, len("/* header */\n"), pos)

	pos, err = a.FirstStatement(ctx, "a.ts", "// only a comment\n")
	require.NoError(t, err)
	assert.Equal(t, len("// only a comment\n"), pos)
}
