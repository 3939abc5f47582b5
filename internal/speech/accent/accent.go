// Package accent rewrites English text toward Nigerian-English spellings
// before it is sent to a speech engine.
package accent

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rule replaces every occurrence of From with To.
type Rule struct {
	From string
	To   string
}

// NigerianRules is the default rule list. Rules run in slice order.
var NigerianRules = []Rule{
	{"the", "di"},
	{"this", "dis"},
	{"that", "dat"},
	{"think", "tink"},
	{"thing", "ting"},
	{"three", "tree"},
	{"through", "tru"},
	{"birthday", "birfday"},
	{"water", "wata"},
	{"better", "berra"},
	{"computer", "komputa"},
	{"internet", "intanet"},
}

// Normalizer lowercases text and applies substring rules in order.
//
// Matching is plain substring replacement with no word boundaries, so
// "there" becomes "dire" and "other" becomes "odir".
type Normalizer struct {
	rules []Rule
}

// New returns a normalizer for rules. A nil slice selects NigerianRules.
func New(rules []Rule) *Normalizer {
	if rules == nil {
		rules = NigerianRules
	}
	cp := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.From == "" {
			continue
		}
		cp = append(cp, r)
	}
	return &Normalizer{rules: cp}
}

// Normalize returns the rewritten text.
func (n *Normalizer) Normalize(text string) string {
	// A Caser carries state, so each call builds its own.
	out := cases.Lower(language.Und).String(text)
	for _, r := range n.rules {
		out = strings.ReplaceAll(out, r.From, r.To)
	}
	return out
}
