package safety

import (
	"fmt"
	"sort"
	"strings"
)

// Checker evaluates a candidate order against a patient's current
// medications and allergies. It is a pure function over a RuleSet snapshot:
// no side effects, no synchronization needed, safe for unlimited concurrent
// callers.
type Checker struct {
	rules *RuleSet
}

func NewChecker(rules *RuleSet) *Checker {
	return &Checker{rules: rules}
}

// Check returns the set of safety findings for the candidate substances.
// The medication and allergy lists are supplied by the caller; this core
// never fetches patient data itself.
func (c *Checker) Check(candidates, existingMedications, allergies []string) []Finding {
	acc := newFindingSet()

	for _, rawCand := range candidates {
		cand := norm(rawCand)
		if cand == "" {
			continue
		}

		// Unknown substances never silently pass.
		if !c.rules.Known(cand) {
			acc.add(Finding{
				Kind:       KindUnverified,
				Substances: []string{cand},
				Advisory:   fmt.Sprintf("%s is not present in the interaction catalog; verify manually", cand),
			})
		}

		for _, rawExisting := range existingMedications {
			existing := norm(rawExisting)
			if existing == "" || existing == cand {
				continue
			}
			if f := c.drugDrug(cand, existing); f != nil {
				acc.add(*f)
			}
		}

		for _, rawAllergen := range allergies {
			allergen := norm(rawAllergen)
			if allergen == "" {
				continue
			}
			// Containment in either direction: a compound name like
			// "amoxicillin trihydrate" matches the base substance both as
			// allergen and as candidate.
			if allergen == cand || strings.Contains(cand, allergen) || strings.Contains(allergen, cand) {
				acc.add(Finding{
					Kind:       KindDrugAllergy,
					Severity:   SeverityContraindicated,
					Substances: []string{cand, allergen},
					Advisory:   fmt.Sprintf("patient is allergic to %s", allergen),
				})
				continue
			}
			if group := c.sharedGroup(cand, allergen); group != "" {
				acc.add(Finding{
					Kind:       KindCrossAllergy,
					Severity:   SeverityMajor,
					Substances: []string{cand, allergen},
					Advisory:   fmt.Sprintf("%s is cross-reactive with %s (group %s)", cand, allergen, group),
				})
			}
		}
	}

	return acc.findings
}

// drugDrug looks for a direct pair rule, then falls back to class-level
// rules via both substances' class tags, reporting the most severe match.
func (c *Checker) drugDrug(cand, existing string) *Finding {
	best := c.rules.Rule(cand, existing)

	candSide := append([]string{cand}, c.rules.ClassTags(cand)...)
	existingSide := append([]string{existing}, c.rules.ClassTags(existing)...)
	for _, a := range candSide {
		for _, b := range existingSide {
			if a == cand && b == existing {
				continue
			}
			if r := c.rules.Rule(a, b); r != nil {
				if best == nil || r.Severity.MoreSevere(best.Severity) {
					best = r
				}
			}
		}
	}

	if best == nil {
		return nil
	}
	return &Finding{
		Kind:       KindDrugDrug,
		Severity:   best.Severity,
		Substances: []string{cand, existing},
		Advisory:   best.Description,
	}
}

// sharedGroup returns a cross-reactivity group containing both substances,
// or "" when there is none. Matching is bounded to exactly one group hop:
// the candidate must share a group with the allergen itself. A substance
// two groups removed from the allergen is deliberately never flagged; this
// is a scope limit of the checker, not an oversight.
func (c *Checker) sharedGroup(cand, allergen string) string {
	candGroups := c.rules.GroupsOf(cand)
	if len(candGroups) == 0 {
		return ""
	}
	inCand := make(map[string]bool, len(candGroups))
	for _, g := range candGroups {
		inCand[g] = true
	}
	for _, g := range c.rules.GroupsOf(allergen) {
		if inCand[g] {
			return g
		}
	}
	return ""
}

// findingSet de-duplicates findings by kind and involved substances.
type findingSet struct {
	seen     map[string]bool
	findings []Finding
}

func newFindingSet() *findingSet {
	return &findingSet{seen: make(map[string]bool)}
}

func (s *findingSet) add(f Finding) {
	subs := append([]string(nil), f.Substances...)
	sort.Strings(subs)
	key := string(f.Kind) + "|" + strings.Join(subs, "|")
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.findings = append(s.findings, f)
}
