package dsl

import (
	"fmt"
	"strings"
)

// Kind discriminates the four entry forms of the knowledge-base language.
type Kind int

const (
	KindRule Kind = iota
	KindAdvice
	KindTranslation
	KindTip
)

// String returns the entry form name.
func (k Kind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindAdvice:
		return "advice"
	case KindTranslation:
		return "translation"
	case KindTip:
		return "tip"
	}
	return "unknown"
}

// Pair is a category-value binding, either a rule condition or a conclusion.
type Pair struct {
	Category string
	Value    string
}

// String renders the pair in source form.
func (p Pair) String() string {
	return p.Category + "-" + p.Value
}

// Node is one parsed entry. Kind selects which fields are meaningful:
// rules use ID, Conditions and Conclusion; the three binding forms use
// Category and Text.
type Node struct {
	Kind   Kind
	Offset int // byte offset of the entry start in the source text

	ID         int
	Conditions []Pair
	Conclusion Pair

	Category string
	Text     string
}

// String re-serializes the node to canonical source form. Parsing the
// result yields an equal node (modulo Offset).
func (n Node) String() string {
	switch n.Kind {
	case KindRule:
		conds := make([]string, len(n.Conditions))
		for i, p := range n.Conditions {
			conds[i] = p.String()
		}
		return fmt.Sprintf("%d %s %s %s %s",
			n.ID, kwIf, strings.Join(conds, " "+kwAnd+" "), kwThen, n.Conclusion)
	case KindAdvice:
		return joinBinding(kwQuestion, n.Category, n.Text)
	case KindTranslation:
		return joinBinding(kwTranslation, n.Category, n.Text)
	case KindTip:
		return joinBinding(kwTip, n.Category, n.Text)
	}
	return ""
}

func joinBinding(keyword, category, text string) string {
	if text == "" {
		return keyword + " " + category
	}
	return keyword + " " + category + " " + text
}

// Format renders a node sequence as knowledge-base source text, one
// entry per line.
func Format(nodes []Node) string {
	lines := make([]string, len(nodes))
	for i, n := range nodes {
		lines[i] = n.String()
	}
	return strings.Join(lines, "\n")
}
