package translation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// PromptBuilder constructs the prompts that turn mnemonics into key seeds.
type PromptBuilder struct {
	sourceLang string
	targetLang string
}

// NewPromptBuilder creates a new prompt builder.
func NewPromptBuilder(sourceLang, targetLang string) *PromptBuilder {
	if sourceLang == "" {
		sourceLang = "zh-CN"
	}
	if targetLang == "" {
		targetLang = "en"
	}
	return &PromptBuilder{sourceLang: sourceLang, targetLang: targetLang}
}

const systemPromptTemplate = `You name localization keys for a front-end code base.

Rules:
1. Translate each short phrase from %s to %s.
2. Answer with one to three plain words per phrase, no punctuation.
3. Use the glossary entries exactly when a phrase matches one.
4. Output ONLY the translations separated by |||, in the same order as the input.
5. Do NOT number the answers or add explanations.`

// SystemPrompt returns the system prompt for seed generation.
func (pb *PromptBuilder) SystemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate, pb.sourceLang, pb.targetLang)
}

// BuildBatchUserPrompt lists the phrases, preceded by the glossary entries that apply.
func (pb *PromptBuilder) BuildBatchUserPrompt(texts []string, glossary map[string]string) string {
	var sb strings.Builder

	if len(glossary) > 0 {
		terms := make([]string, 0, len(glossary))
		for src := range glossary {
			terms = append(terms, src)
		}
		sort.Strings(terms)

		sb.WriteString("=== Glossary ===\n")
		for _, src := range terms {
			fmt.Fprintf(&sb, "• %s → %s\n", src, glossary[src])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Translate each phrase below. Return ONLY the translations, separated by ||| delimiter, in the same order.\n\n")
	for i, t := range texts {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, t)
	}

	return sb.String()
}

var answerIndex = regexp.MustCompile(`^\[\d+\]\s*`)

// ParseBatchResponse splits a ||| separated answer into n seeds. Missing answers are
// left blank so that callers fall back to the mnemonic.
func ParseBatchResponse(response string, n int) []string {
	parts := strings.Split(response, "|||")
	out := make([]string, n)
	for i := range out {
		if i < len(parts) {
			out[i] = strings.TrimSpace(answerIndex.ReplaceAllString(strings.TrimSpace(parts[i]), ""))
		}
	}
	return out
}
