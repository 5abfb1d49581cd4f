package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContainsChinese checks if a string contains Chinese characters.
func ContainsChinese(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// IsMnemonicRune reports whether r may appear in a key mnemonic:
// ASCII letters and Han ideographs.
func IsMnemonicRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.Is(unicode.Han, r)
}

// Hash computes a SHA-256 hex hash of a string for deduplication.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens a string to maxRunes characters, appending "..." if truncated.
func Truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "..."
}

// UnescapeNewlines turns the escape sequence \n written in source code into a real
// newline, which is how the text is stored in a catalog.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
