package answer

import (
	"regexp"
	"strings"
	"unicode"
)

// lineBreak matches a whitespace run containing at least one newline.
var lineBreak = regexp.MustCompile(`\s*\n\s*`)

// Normalize joins lines broken inside sentences and trims the result.
func Normalize(text string) string {
	return strings.TrimSpace(lineBreak.ReplaceAllString(text, " "))
}

// SplitSentences breaks text at a whitespace character that follows '.' or '?'.
// Two abbreviation shapes do not end a sentence: a period-separated letter pair
// ("e.g. ", "U.S. ") and a capitalized two-letter token ("Mr. ", "Dr. ").
// Pieces are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	rs := []rune(text)
	var out []string
	start := 0
	for i, r := range rs {
		if !unicode.IsSpace(r) || !isBoundary(rs, i) {
			continue
		}
		out = appendTrimmed(out, string(rs[start:i]))
		start = i + 1
	}
	return appendTrimmed(out, string(rs[start:]))
}

// isBoundary reports whether the whitespace at rs[i] ends a sentence.
func isBoundary(rs []rune, i int) bool {
	if i < 1 || (rs[i-1] != '.' && rs[i-1] != '?') {
		return false
	}
	// \w\.\w. directly before i
	if i >= 4 && isWord(rs[i-4]) && rs[i-3] == '.' && isWord(rs[i-2]) {
		return false
	}
	// [A-Z][a-z]\. directly before i
	if i >= 3 && rs[i-1] == '.' && isUpperASCII(rs[i-3]) && isLowerASCII(rs[i-2]) {
		return false
	}
	return true
}

func appendTrimmed(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isUpperASCII(r rune) bool { return r >= 'A' && r <= 'Z' }

func isLowerASCII(r rune) bool { return r >= 'a' && r <= 'z' }
