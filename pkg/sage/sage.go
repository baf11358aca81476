// Package sage is a rule-based expert-system core. It parses a small
// knowledge-base language into an immutable knowledge base and answers
// queries by forward chaining, asking clarifying questions through an
// explicit suspend/resume contract.
package sage

import (
	"github.com/cognicore/sage/pkg/sage/dsl"
	"github.com/cognicore/sage/pkg/sage/infer"
	"github.com/cognicore/sage/pkg/sage/kb"
	"github.com/cognicore/sage/pkg/sage/session"
)

// LoadKnowledgeBase parses and validates knowledge-base source text.
// It returns either a complete knowledge base or the first
// *dsl.SyntaxError or validation error; no partial knowledge base is
// ever returned.
func LoadKnowledgeBase(text string) (*kb.KB, error) {
	nodes, err := dsl.Parse(text)
	if err != nil {
		return nil, err
	}
	return kb.Build(nodes)
}

// NewSession creates an interactive query session over the knowledge
// base. Any number of sessions may run concurrently against the same
// knowledge base.
func NewSession(base *kb.KB, opts ...session.Option) *session.Session {
	return session.New(base, opts...)
}

// Resolve runs one non-interactive query for the target category from
// the given initial facts. The outcome is Resolved, NeedsInput (more
// facts required; use a session to continue) or Exhausted.
func Resolve(base *kb.KB, target string, initialFacts map[string]string) infer.Outcome {
	return infer.Resolve(base, target, initialFacts)
}

// Describe renders a fact for display: the category's translation label
// when one is bound, otherwise the category name, followed by the
// value, followed by the category's tip when one is bound.
func Describe(base *kb.KB, fact dsl.Pair) string {
	label := fact.Category
	if t, ok := base.TranslationFor(fact.Category); ok && t != "" {
		label = t
	}
	out := label + ": " + fact.Value
	if tip, ok := base.TipFor(fact.Category); ok && tip != "" {
		out += " (" + tip + ")"
	}
	return out
}
