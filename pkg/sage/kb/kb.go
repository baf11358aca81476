// Package kb turns parsed entries into an immutable, indexed knowledge
// base. Construction is all-or-nothing: any validation failure aborts
// the whole build and no partial knowledge base is returned.
package kb

import (
	"sort"

	"github.com/cognicore/sage/pkg/sage/dsl"
)

// Rule is one numbered implication: every condition pair must hold for
// the conclusion pair to be asserted.
type Rule struct {
	ID         int
	Conditions []dsl.Pair
	Conclusion dsl.Pair
}

// KB is the loaded knowledge base for one domain. It is immutable
// after Build and safe for concurrent readers.
type KB struct {
	rules []Rule      // ascending by ID
	byID  map[int]int // rule ID -> index into rules

	questions    map[string]string
	translations map[string]string
	tips         map[string]string

	values       map[string][]string // category -> known values, first-seen order
	conditioning map[string][]int    // category -> indices of rules conditioning on it
	concluding   map[string][]int    // category -> indices of rules concluding it
}

// Rules returns all rules in ascending ID order. The returned slice is
// shared; callers must not modify it.
func (b *KB) Rules() []Rule {
	return b.rules
}

// Rule returns the rule with the given ID.
func (b *KB) Rule(id int) (Rule, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Rule{}, false
	}
	return b.rules[i], true
}

// RuleCount returns the number of rules.
func (b *KB) RuleCount() int {
	return len(b.rules)
}

// QuestionFor returns the clarifying prompt bound to a category.
func (b *KB) QuestionFor(category string) (string, bool) {
	q, ok := b.questions[category]
	return q, ok
}

// TranslationFor returns the human-readable label bound to a category.
func (b *KB) TranslationFor(category string) (string, bool) {
	t, ok := b.translations[category]
	return t, ok
}

// TipFor returns the supplementary hint text bound to a category.
func (b *KB) TipFor(category string) (string, bool) {
	t, ok := b.tips[category]
	return t, ok
}

// Categories returns every category mentioned by any rule pair, sorted.
func (b *KB) Categories() []string {
	cats := make([]string, 0, len(b.values))
	for c := range b.values {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ValuesFor returns the values the rules mention for a category, in
// first-seen order. Useful for presenting answer choices.
func (b *KB) ValuesFor(category string) []string {
	return b.values[category]
}

// RulesConditioningOn returns the rules that list the category among
// their conditions, ascending by ID.
func (b *KB) RulesConditioningOn(category string) []Rule {
	return b.rulesAt(b.conditioning[category])
}

// RulesConcluding returns the rules whose conclusion binds the
// category, ascending by ID.
func (b *KB) RulesConcluding(category string) []Rule {
	return b.rulesAt(b.concluding[category])
}

func (b *KB) rulesAt(indices []int) []Rule {
	if len(indices) == 0 {
		return nil
	}
	out := make([]Rule, len(indices))
	for i, idx := range indices {
		out[i] = b.rules[idx]
	}
	return out
}

// Questions returns a copy of the category -> prompt map.
func (b *KB) Questions() map[string]string {
	return copyMap(b.questions)
}

// Translations returns a copy of the category -> label map.
func (b *KB) Translations() map[string]string {
	return copyMap(b.translations)
}

// Tips returns a copy of the category -> hint map.
func (b *KB) Tips() map[string]string {
	return copyMap(b.tips)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Entries re-serializes the knowledge base as parse nodes: rules in
// ascending ID order, then questions, translations and tips sorted by
// category. Formatting the result and re-parsing it builds an equal
// knowledge base.
func (b *KB) Entries() []dsl.Node {
	nodes := make([]dsl.Node, 0, len(b.rules)+len(b.questions)+len(b.translations)+len(b.tips))
	for _, r := range b.rules {
		nodes = append(nodes, dsl.Node{
			Kind:       dsl.KindRule,
			ID:         r.ID,
			Conditions: r.Conditions,
			Conclusion: r.Conclusion,
		})
	}
	nodes = append(nodes, bindingNodes(dsl.KindAdvice, b.questions)...)
	nodes = append(nodes, bindingNodes(dsl.KindTranslation, b.translations)...)
	nodes = append(nodes, bindingNodes(dsl.KindTip, b.tips)...)
	return nodes
}

func bindingNodes(kind dsl.Kind, m map[string]string) []dsl.Node {
	cats := make([]string, 0, len(m))
	for c := range m {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	nodes := make([]dsl.Node, len(cats))
	for i, c := range cats {
		nodes[i] = dsl.Node{Kind: kind, Category: c, Text: m[c]}
	}
	return nodes
}
