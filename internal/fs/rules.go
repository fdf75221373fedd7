package fs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"fscat/internal/globfilter"
)

// ParseRule parses one filter rule: "+ <regex>" includes, "- <regex>"
// excludes. The space after the sign is optional.
func ParseRule(s string) (globfilter.Rule, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return globfilter.Rule{}, fmt.Errorf("rule %q: want \"+ <pattern>\" or \"- <pattern>\"", s)
	}

	var include bool
	switch s[0] {
	case '+':
		include = true
	case '-':
		include = false
	default:
		return globfilter.Rule{}, fmt.Errorf("rule %q: must start with + or -", s)
	}

	pattern := strings.TrimSpace(s[1:])
	if pattern == "" {
		return globfilter.Rule{}, fmt.Errorf("rule %q: empty pattern", s)
	}
	if _, err := globfilter.Compile(pattern); err != nil {
		return globfilter.Rule{}, err
	}
	return globfilter.Rule{Pattern: pattern, Include: include}, nil
}

// ParseRules reads rules one per line, in evaluation order.
// Blank lines and lines starting with '#' are skipped.
func ParseRules(r io.Reader) ([]globfilter.Rule, error) {
	var rules []globfilter.Rule
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rule, err := ParseRule(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return rules, nil
}

// ParseRuleFile reads a rule file from disk.
func ParseRuleFile(path string) ([]globfilter.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer f.Close()

	rules, err := ParseRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
