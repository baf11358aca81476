package kb

import (
	"fmt"
	"sort"

	"github.com/cognicore/sage/pkg/sage/dsl"
	"github.com/cognicore/sage/pkg/sage/internalerr"
)

// Build validates a parsed entry sequence and assembles the knowledge
// base. It rejects duplicate rule IDs, rules whose conditions bind one
// category to two different values, rules whose conclusion category
// appears among their own conditions, and duplicate question,
// translation or tip bindings for one category.
func Build(nodes []dsl.Node) (*KB, error) {
	b := &KB{
		byID:         make(map[int]int),
		questions:    make(map[string]string),
		translations: make(map[string]string),
		tips:         make(map[string]string),
		values:       make(map[string][]string),
		conditioning: make(map[string][]int),
		concluding:   make(map[string][]int),
	}

	seen := make(map[int]bool)
	for _, n := range nodes {
		switch n.Kind {
		case dsl.KindRule:
			if seen[n.ID] {
				return nil, fmt.Errorf("rule %d: %w", n.ID, internalerr.ErrDuplicateRule)
			}
			seen[n.ID] = true

			if err := checkConditions(n); err != nil {
				return nil, err
			}

			b.rules = append(b.rules, Rule{
				ID:         n.ID,
				Conditions: n.Conditions,
				Conclusion: n.Conclusion,
			})

		case dsl.KindAdvice:
			if err := bind(b.questions, n, "question"); err != nil {
				return nil, err
			}
		case dsl.KindTranslation:
			if err := bind(b.translations, n, "translation"); err != nil {
				return nil, err
			}
		case dsl.KindTip:
			if err := bind(b.tips, n, "tip"); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(b.rules, func(i, j int) bool { return b.rules[i].ID < b.rules[j].ID })
	b.index()

	return b, nil
}

// checkConditions rejects internally contradictory and self-referencing
// rules. Repeating the same category with the same value is tolerated.
func checkConditions(n dsl.Node) error {
	bound := make(map[string]string, len(n.Conditions))
	for _, c := range n.Conditions {
		if v, ok := bound[c.Category]; ok && v != c.Value {
			return fmt.Errorf("rule %d: category %q bound to both %q and %q: %w",
				n.ID, c.Category, v, c.Value, internalerr.ErrContradictory)
		}
		bound[c.Category] = c.Value
	}
	if _, ok := bound[n.Conclusion.Category]; ok {
		return fmt.Errorf("rule %d: category %q: %w",
			n.ID, n.Conclusion.Category, internalerr.ErrSelfReference)
	}
	return nil
}

func bind(m map[string]string, n dsl.Node, kind string) error {
	if _, ok := m[n.Category]; ok {
		return fmt.Errorf("%s for category %q: %w", kind, n.Category, internalerr.ErrDuplicateBind)
	}
	m[n.Category] = n.Text
	return nil
}

// index fills the lookup tables once the rule slice is in its final
// ascending-ID order.
func (b *KB) index() {
	for i, r := range b.rules {
		b.byID[r.ID] = i

		seen := make(map[string]bool, len(r.Conditions))
		for _, c := range r.Conditions {
			b.addValue(c.Category, c.Value)
			if !seen[c.Category] {
				seen[c.Category] = true
				b.conditioning[c.Category] = append(b.conditioning[c.Category], i)
			}
		}

		b.addValue(r.Conclusion.Category, r.Conclusion.Value)
		b.concluding[r.Conclusion.Category] = append(b.concluding[r.Conclusion.Category], i)
	}
}

// addValue records a value for a category, keeping first-seen order
// and skipping duplicates.
func (b *KB) addValue(category, value string) {
	for _, v := range b.values[category] {
		if v == value {
			return
		}
	}
	b.values[category] = append(b.values[category], value)
}
