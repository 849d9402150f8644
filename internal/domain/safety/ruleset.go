package safety

import (
	"sort"
	"strings"
)

// RuleSet is an immutable snapshot of the interaction catalog: pair rules,
// substance class tags, and allergy cross-reactivity groups, indexed for
// constant-time lookup. Checkers only ever read a RuleSet, so one snapshot
// may serve unlimited concurrent callers. When the catalog changes a new
// snapshot is built and swapped in whole.
type RuleSet struct {
	rules  map[string]*InteractionRule // normalized unordered pair -> rule
	tags   map[string][]string         // substance -> class tags
	groups map[string][]string         // substance -> group names
	known  map[string]bool             // substances and classes the catalog knows
}

// NewRuleSet indexes rules, class tags (substance -> tags), and allergy
// groups into a snapshot. Substance names are compared case-insensitively.
func NewRuleSet(rules []*InteractionRule, classTags map[string][]string, groups []*AllergyGroup) *RuleSet {
	rs := &RuleSet{
		rules:  make(map[string]*InteractionRule, len(rules)),
		tags:   make(map[string][]string, len(classTags)),
		groups: make(map[string][]string),
		known:  make(map[string]bool),
	}
	for _, r := range rules {
		a, b := norm(r.SubstanceA), norm(r.SubstanceB)
		rs.rules[pairKey(a, b)] = r
		rs.known[a] = true
		rs.known[b] = true
	}
	for substance, tags := range classTags {
		s := norm(substance)
		normed := make([]string, 0, len(tags))
		for _, t := range tags {
			nt := norm(t)
			normed = append(normed, nt)
			rs.known[nt] = true
		}
		rs.tags[s] = normed
		rs.known[s] = true
	}
	for _, g := range groups {
		for _, member := range g.Members {
			m := norm(member)
			rs.groups[m] = append(rs.groups[m], norm(g.Name))
			rs.known[m] = true
		}
	}
	return rs
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// pairKey builds the lookup key for an unordered substance pair.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Rule returns the direct rule for an unordered pair, if any. Inputs must
// already be normalized.
func (rs *RuleSet) Rule(a, b string) *InteractionRule {
	return rs.rules[pairKey(a, b)]
}

// ClassTags returns the class tags of a normalized substance.
func (rs *RuleSet) ClassTags(substance string) []string {
	return rs.tags[substance]
}

// GroupsOf returns the cross-reactivity groups a normalized substance
// belongs to.
func (rs *RuleSet) GroupsOf(substance string) []string {
	return rs.groups[substance]
}

// Known reports whether the catalog has any knowledge of the substance: a
// rule mentioning it, class tags, or group membership.
func (rs *RuleSet) Known(substance string) bool {
	return rs.known[substance]
}

// Substances returns the sorted list of substances the snapshot knows.
// Useful for diagnostics.
func (rs *RuleSet) Substances() []string {
	out := make([]string, 0, len(rs.known))
	for s := range rs.known {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
