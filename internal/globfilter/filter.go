// Package globfilter decides whether a path is included in a catalog.
//
// A Filter is an ordered list of items, each pointing at a pattern and
// carrying an include or exclude polarity. Evaluation folds over every
// item in order: a matching item sets the decision to its polarity, a
// non-matching item leaves it alone. The last matching item therefore
// wins, and a path that matches nothing is excluded.
package globfilter

import "fmt"

// Item references one of a Filter's patterns by index.
type Item struct {
	PatternIndex int
	Include      bool
}

// Rule is an uncompiled filter item, as written by users.
type Rule struct {
	Pattern string
	Include bool
}

func (r Rule) String() string {
	if r.Include {
		return "+ " + r.Pattern
	}
	return "- " + r.Pattern
}

// Filter is an ordered include/exclude rule chain.
type Filter struct {
	Patterns []*Pattern
	Items    []Item
}

// New compiles rules into a Filter. Identical pattern texts share one
// compiled Pattern.
func New(rules []Rule) (*Filter, error) {
	f := &Filter{}
	for _, r := range rules {
		idx, err := f.addPattern(r.Pattern)
		if err != nil {
			return nil, err
		}
		f.Items = append(f.Items, Item{PatternIndex: idx, Include: r.Include})
	}
	return f, nil
}

// AddItem appends an item that uses the given pattern text, compiling the
// pattern if the filter does not already hold it.
func (f *Filter) AddItem(pattern string, include bool) error {
	idx, err := f.addPattern(pattern)
	if err != nil {
		return err
	}
	f.Items = append(f.Items, Item{PatternIndex: idx, Include: include})
	return nil
}

func (f *Filter) addPattern(text string) (int, error) {
	for i, p := range f.Patterns {
		if p.text == text {
			return i, nil
		}
	}
	p, err := Compile(text)
	if err != nil {
		return 0, err
	}
	f.Patterns = append(f.Patterns, p)
	return len(f.Patterns) - 1, nil
}

// Include reports whether path is accepted by the filter.
func (f *Filter) Include(path string) bool {
	included := false
	for _, item := range f.Items {
		if f.Patterns[item.PatternIndex].Match(path) {
			included = item.Include
		}
	}
	return included
}

// Rules returns the filter's items in evaluation order.
func (f *Filter) Rules() []Rule {
	rules := make([]Rule, 0, len(f.Items))
	for _, item := range f.Items {
		rules = append(rules, Rule{Pattern: f.Patterns[item.PatternIndex].text, Include: item.Include})
	}
	return rules
}

// Validate checks that every item refers to an existing pattern.
func (f *Filter) Validate() error {
	for i, item := range f.Items {
		if item.PatternIndex < 0 || item.PatternIndex >= len(f.Patterns) {
			return fmt.Errorf("item %d references pattern %d of %d", i, item.PatternIndex, len(f.Patterns))
		}
	}
	return nil
}
