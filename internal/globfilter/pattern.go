package globfilter

import (
	"fmt"
	"regexp"
)

// Pattern is a compiled matching rule. Patterns are regular expressions
// searched anywhere in the path; anchor with ^ and $ to match whole paths.
type Pattern struct {
	text string
	re   *regexp.Regexp
}

// Compile parses text into a Pattern.
func Compile(text string) (*Pattern, error) {
	re, err := regexp.Compile(text)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", text, err)
	}
	return &Pattern{text: text, re: re}, nil
}

// MustCompile is like Compile but panics if text cannot be parsed.
func MustCompile(text string) *Pattern {
	p, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether path matches the pattern.
func (p *Pattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// String returns the pattern text.
func (p *Pattern) String() string {
	return p.text
}
