package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reFenceOpen  = regexp.MustCompile("(?i)^```[ \t]*(json)?[ \t]*\r?\n?")
	reFenceClose = regexp.MustCompile("\r?\n?```[ \t]*$")
)

// StripCodeFences removes a leading ``` / ```json fence and a trailing ``` fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the span from the first '{' to the last '}', or "" if there is none.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func Truncate(s string, n int) string {
	if len(s) > n {
		return CutUTF8(s, n) + "..."
	}
	return s
}

// CutUTF8 returns at most n bytes of s without splitting a rune.
func CutUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
