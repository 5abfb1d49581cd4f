package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTermsFromCatalog(t *testing.T) {
	entries := map[string]string{
		"common.submit":       "提交",
		"pages.form.submit2":  "提交",
		"pages.list.title_1":  "列表标题",
		"pages.list.删除":       "删除",
		"pages.list.symbolic": "123",
		"pages.list.ok":       "OK",
	}

	want := []Term{
		{Mnemonic: "提交", Seed: "submit", Key: "common.submit", Text: "提交"},
		{Mnemonic: "OK", Seed: "ok", Key: "pages.list.ok", Text: "OK"},
		{Mnemonic: "列表标题", Seed: "title", Key: "pages.list.title_1", Text: "列表标题"},
	}
	if diff := cmp.Diff(want, TermsFromCatalog(entries)); diff != "" {
		t.Errorf("TermsFromCatalog mismatch (-want +got):\n%s", diff)
	}
}
