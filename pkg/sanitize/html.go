// Package sanitize converts appstream description markup to plain text
// for indexing.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<\s*/?\s*([a-zA-Z][a-zA-Z0-9]*)?[^<>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// inlineTags are dropped without a separator so a word split by
// emphasis markup stays one word
var inlineTags = map[string]bool{
	"a": true, "b": true, "code": true, "em": true, "i": true,
	"small": true, "span": true, "strong": true, "sub": true,
	"sup": true, "tt": true, "u": true,
}

// StripHTML removes markup tags and decodes entities. Block tags become
// a space so words in adjacent elements stay apart; inline tags vanish.
// Runs of whitespace are collapsed. Stray angle brackets not forming a
// tag are kept.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	text := tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		name := strings.ToLower(tagPattern.FindStringSubmatch(tag)[1])
		if inlineTags[name] {
			return ""
		}
		return " "
	})
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
