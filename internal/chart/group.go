package chart

import (
	"regexp"
	"strings"
)

var groupRe = regexp.MustCompile(`(?im)^[ \t]*#category:[ \t]*(.+)$`)

// ExtractGroup returns the value of the first "#category:" directive in
// text, or "" when there is none.
func ExtractGroup(text string) string {
	m := groupRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
