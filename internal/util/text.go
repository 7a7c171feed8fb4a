// Package util holds small text and hashing helpers shared by readaloud packages.
package util

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// a word broken by a hyphen at a line end, e.g. "infor- mation"
	lineBreakHyphen = regexp.MustCompile(`(\w)-\s+(\w)`)
)

// NormalizeExtractedText cleans text pulled out of a PDF page: whitespace runs
// become one space, hyphenated line breaks are joined and the result is trimmed.
func NormalizeExtractedText(text string) string {
	text = lineBreakHyphen.ReplaceAllString(text, "$1$2")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizePages normalizes every page and returns the pages together with
// the non-empty pages joined by a space.
func NormalizePages(pages []string) ([]string, string) {
	normalized := make([]string, len(pages))
	nonEmpty := make([]string, 0, len(pages))
	for i, page := range pages {
		normalized[i] = NormalizeExtractedText(page)
		if normalized[i] != "" {
			nonEmpty = append(nonEmpty, normalized[i])
		}
	}
	return normalized, strings.Join(nonEmpty, " ")
}
