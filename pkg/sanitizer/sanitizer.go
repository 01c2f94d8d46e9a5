package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reIdentifierJunk = regexp.MustCompile(`[^0-9A-Za-z_\-.@:]+`)

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeName cleans hotel names and locations.
func SanitizeName(input string) string {
	return Pipeline{dropControl, TrimAndNormalize}.Apply(input)
}

// SanitizeDescription keeps line breaks but trims the ends and strips control characters.
func SanitizeDescription(input string) string {
	return Pipeline{dropControl, strings.TrimSpace}.Apply(input)
}

// SanitizeIdentifier strips characters that never appear in user or hotel ids.
func SanitizeIdentifier(input string) string {
	return Pipeline{
		strings.TrimSpace,
		func(s string) string { return reIdentifierJunk.ReplaceAllString(s, "") },
	}.Apply(input)
}
