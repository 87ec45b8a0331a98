// Package normalize cleans raw extracted PDF text before classification
// and chunking.
package normalize

import (
	"regexp"
	"strings"
)

var (
	crlfRe       = regexp.MustCompile(`\r\n?`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	pageNumberRe = regexp.MustCompile(`^\d+$`)
)

// boilerplate phrases stripped from extracted text, matched case-insensitively
// against whole lines after trimming.
var boilerplate = []string{
	"confidential and proprietary",
	"proprietary and confidential",
	"all rights reserved",
	"do not distribute",
	"for internal use only",
}

// Text normalizes raw extracted text: line endings, blank-line runs,
// standalone page numbers, boilerplate stamps, and surrounding whitespace.
// The transform is idempotent.
func Text(raw string) string {
	s := crlfRe.ReplaceAllString(raw, "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if pageNumberRe.MatchString(trimmed) {
			continue
		}
		if isBoilerplate(trimmed) {
			continue
		}
		out = append(out, trimmed)
	}

	s = strings.Join(out, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range boilerplate {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
