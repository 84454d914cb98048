// SPDX-License-Identifier: MIT

// Package vocab rewrites community-specific vocabulary in generated captions
// into generic descriptive language suitable for training data.
package vocab

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Replacement maps one source term to its generic substitute.
type Replacement struct {
	Term    string
	Generic string
}

// DefaultReplacements is applied in order; longer plural forms precede their
// singular prefixes so that "sisters" is not rewritten as "womans".
var DefaultReplacements = []Replacement{
	{"Elders", "dignified mature men in their 40s-50s"},
	{"Elder", "dignified mature man in his 40s-50s"},
	{"two sisters", "two women"},
	{"three sisters", "three women"},
	{"sisters", "women"},
	{"sister", "woman"},
	{"brothers", "men"},
	{"brother", "man"},
	{"witness couple", "married couple"},
	{"witness family", "family"},
	{"Kingdom Hall", "modern meeting hall with simple interior"},
	{"kingdom hall", "modern meeting hall with simple interior"},
	{"cart witnessing", "public information display"},
	{"door to door", "residential visit"},
	{"door-to-door", "residential visit"},
	{"in the ministry", "community outreach"},
	{"ministry work", "community outreach"},
	{"informal witnessing", "friendly conversation"},
	{"circuit overseer", "visiting speaker"},
	{"pioneers", "dedicated volunteers"},
	{"pioneer", "dedicated volunteer"},
	{"Jehovah's Witnesses", "community members"},
	{"Jehovah's Witness", "community member"},
	{"Bible study", "educational discussion"},
	{"Watchtower", "magazine"},
	{"Awake!", "magazine"},
	{"field service", "community outreach"},
	{"preaching work", "community outreach"},
	{"circuit assembly", "community gathering"},
	{"district convention", "large community gathering"},
	{"regional convention", "large community gathering"},
}

var titler = cases.Title(language.English)

// Normalize applies DefaultReplacements to text.
func Normalize(text string) string {
	return Apply(text, DefaultReplacements)
}

// Apply rewrites each term in order, covering the term as written plus its
// lower-case and title-case variants.
func Apply(text string, replacements []Replacement) string {
	out := text
	for _, r := range replacements {
		out = strings.ReplaceAll(out, r.Term, r.Generic)
		out = strings.ReplaceAll(out, strings.ToLower(r.Term), r.Generic)
		out = strings.ReplaceAll(out, titler.String(r.Term), r.Generic)
	}
	return out
}
