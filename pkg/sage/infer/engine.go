// Package infer implements forward chaining over a knowledge base:
// rules fire in ascending ID order whenever their conditions are met,
// and when nothing can fire the engine asks for the value of a missing
// category through the NeedsInput outcome.
package infer

import (
	"fmt"

	"github.com/cognicore/sage/pkg/sage/dsl"
	"github.com/cognicore/sage/pkg/sage/internalerr"
	"github.com/cognicore/sage/pkg/sage/kb"
)

// OutcomeKind discriminates the three terminal states of one chaining
// pass.
type OutcomeKind int

const (
	// Resolved means the target category received a value.
	Resolved OutcomeKind = iota
	// NeedsInput means the engine is suspended waiting for the value
	// of Outcome.Category; resume with Supply.
	NeedsInput
	// Exhausted means no rule can fire and no further question can be
	// asked. A normal result, not a failure.
	Exhausted
)

// String returns the outcome kind name.
func (k OutcomeKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case NeedsInput:
		return "needs-input"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Outcome is the result of running the engine until it resolves,
// suspends or exhausts.
type Outcome struct {
	Kind OutcomeKind

	// Fact is the resolved category-value pair (Kind == Resolved).
	Fact dsl.Pair

	// Category and Prompt describe the requested answer
	// (Kind == NeedsInput).
	Category string
	Prompt   string
}

// Engine is one inference run over a shared, read-only knowledge base.
// Working memory and the fired-rule set belong to this run alone and
// die with it. An Engine is not safe for concurrent use.
type Engine struct {
	base   *kb.KB
	target string // empty means best-conclusion mode

	memory  map[string]string
	fired   map[int]bool
	pending string // category awaited after NeedsInput

	last      dsl.Pair // most recently asserted conclusion
	concluded bool
}

// New creates an engine for one query. target selects the category to
// resolve; an empty target runs to fixpoint and resolves with the most
// recently concluded fact ("best conclusion" mode). initial seeds
// working memory and may be nil.
func New(base *kb.KB, target string, initial map[string]string) *Engine {
	memory := make(map[string]string, len(initial))
	for c, v := range initial {
		memory[c] = v
	}
	return &Engine{
		base:   base,
		target: target,
		memory: memory,
		fired:  make(map[int]bool),
	}
}

// Target returns the category the engine is resolving; empty in
// best-conclusion mode.
func (e *Engine) Target() string {
	return e.target
}

// Run chains forward until the target resolves, a question must be
// asked, or the knowledge base is exhausted. Calling Run again while
// suspended re-returns the pending question.
func (e *Engine) Run() Outcome {
	if e.pending != "" {
		prompt, _ := e.base.QuestionFor(e.pending)
		return Outcome{Kind: NeedsInput, Category: e.pending, Prompt: prompt}
	}

	for {
		if e.target != "" {
			if v, ok := e.memory[e.target]; ok {
				return Outcome{Kind: Resolved, Fact: dsl.Pair{Category: e.target, Value: v}}
			}
		}

		if e.fireNext() {
			continue
		}

		missing, ok := e.missingCategory()
		if !ok {
			// Fixpoint: everything fireable has fired.
			if e.target == "" && e.concluded {
				return Outcome{Kind: Resolved, Fact: e.last}
			}
			return Outcome{Kind: Exhausted}
		}

		prompt, ok := e.base.QuestionFor(missing)
		if !ok {
			// The category cannot be asked about; the query is over.
			return Outcome{Kind: Exhausted}
		}

		e.pending = missing
		return Outcome{Kind: NeedsInput, Category: missing, Prompt: prompt}
	}
}

// Supply resumes a suspended engine with the value of the requested
// category, then continues chaining. Supplying while not suspended, or
// for a category other than the requested one, is rejected without
// touching working memory.
func (e *Engine) Supply(category, value string) (Outcome, error) {
	if e.pending == "" {
		return Outcome{}, fmt.Errorf("no question pending: %w", internalerr.ErrSessionMisuse)
	}
	if category != e.pending {
		return Outcome{}, fmt.Errorf("answered %q while %q was asked: %w",
			category, e.pending, internalerr.ErrSessionMisuse)
	}

	e.memory[category] = value
	e.pending = ""
	return e.Run(), nil
}

// Memory returns a copy of working memory, for explanation surfaces.
func (e *Engine) Memory() map[string]string {
	out := make(map[string]string, len(e.memory))
	for c, v := range e.memory {
		out[c] = v
	}
	return out
}

// FiredRules returns the IDs of the rules fired so far, ascending.
func (e *Engine) FiredRules() []int {
	var ids []int
	for _, r := range e.base.Rules() {
		if e.fired[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// fireNext fires the lowest-ID eligible rule, asserting its conclusion
// into working memory (last-fired-wins on the conclusion category).
// It reports whether any rule fired.
func (e *Engine) fireNext() bool {
	for _, r := range e.base.Rules() {
		if e.fired[r.ID] || !e.eligible(r) {
			continue
		}
		e.fired[r.ID] = true
		e.memory[r.Conclusion.Category] = r.Conclusion.Value
		e.last = r.Conclusion
		e.concluded = true
		return true
	}
	return false
}

// eligible reports whether every condition of the rule holds in
// working memory.
func (e *Engine) eligible(r kb.Rule) bool {
	for _, c := range r.Conditions {
		v, ok := e.memory[c.Category]
		if !ok || v != c.Value {
			return false
		}
	}
	return true
}

// missingCategory picks the category to ask about next: among the
// conditions of not-yet-fired rules, the first unknown category of the
// lowest-ID pending rule.
func (e *Engine) missingCategory() (string, bool) {
	for _, r := range e.base.Rules() {
		if e.fired[r.ID] {
			continue
		}
		for _, c := range r.Conditions {
			if _, ok := e.memory[c.Category]; !ok {
				return c.Category, true
			}
		}
	}
	return "", false
}

// Resolve runs one non-interactive query: it chains from the initial
// facts and returns the first terminal or suspending outcome. Callers
// that need the ask/answer loop should use a session instead.
func Resolve(base *kb.KB, target string, initial map[string]string) Outcome {
	return New(base, target, initial).Run()
}
