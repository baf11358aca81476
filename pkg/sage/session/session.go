// Package session binds one inference run to one interactive exchange.
// A session owns its engine's working memory and keeps a transcript of
// every question asked and answer given, for explanation and audit.
package session

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/sage/pkg/sage/infer"
	"github.com/cognicore/sage/pkg/sage/internalerr"
	"github.com/cognicore/sage/pkg/sage/kb"
)

// State is the session lifecycle position.
type State int

const (
	// Idle means Start has not been called yet.
	Idle State = iota
	// Waiting means the engine is suspended on a question.
	Waiting
	// Finished means the engine returned Resolved or Exhausted.
	Finished
	// Cancelled means Cancel discarded the run.
	Cancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Exchange is one asked question and, once supplied, its answer.
type Exchange struct {
	Category   string
	Prompt     string
	Value      string
	AskedAt    time.Time
	AnsweredAt time.Time
}

// Session drives the ask/answer loop for one query against a shared,
// read-only knowledge base. It is owned by a single caller and is not
// safe for concurrent use; independent sessions over the same
// knowledge base need no coordination.
type Session struct {
	id      string
	base    *kb.KB
	initial map[string]string
	target  string

	eng        *infer.Engine
	state      State
	transcript []Exchange
	outcome    infer.Outcome
}

// Option configures a session.
type Option func(*Session)

// WithInitialFacts seeds working memory before chaining starts.
func WithInitialFacts(facts map[string]string) Option {
	return func(s *Session) {
		s.initial = facts
	}
}

// New creates an idle session over the knowledge base. The session id
// is a fresh ULID.
func New(base *kb.KB, opts ...Option) *Session {
	s := &Session{
		id:    ulid.Make().String(),
		base:  base,
		state: Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Target returns the category being resolved; empty before Start or in
// best-conclusion mode.
func (s *Session) Target() string {
	return s.target
}

// Start begins resolving the target category. An empty target runs in
// best-conclusion mode. Starting a session twice is a misuse error.
func (s *Session) Start(target string) (infer.Outcome, error) {
	if s.state != Idle {
		return infer.Outcome{}, fmt.Errorf("start on a %s session: %w", s.state, internalerr.ErrSessionMisuse)
	}

	s.target = target
	s.eng = infer.New(s.base, target, s.initial)
	return s.observe(s.eng.Run()), nil
}

// Answer supplies the value of the category the session is waiting on
// and resumes chaining. Answering while not waiting, or answering a
// category other than the one asked (including one already known), is
// a misuse error and leaves working memory untouched.
func (s *Session) Answer(category, value string) (infer.Outcome, error) {
	switch s.state {
	case Finished, Cancelled:
		return infer.Outcome{}, fmt.Errorf("answer on a %s session: %w", s.state, internalerr.ErrSessionFinished)
	case Idle:
		return infer.Outcome{}, fmt.Errorf("answer on a %s session: %w", s.state, internalerr.ErrSessionMisuse)
	}

	out, err := s.eng.Supply(category, value)
	if err != nil {
		return infer.Outcome{}, err
	}

	last := &s.transcript[len(s.transcript)-1]
	last.Value = value
	last.AnsweredAt = time.Now()

	return s.observe(out), nil
}

// Cancel discards working memory and the fired-rule set immediately.
// A cancelled session cannot be restarted or answered.
func (s *Session) Cancel() {
	s.eng = nil
	s.state = Cancelled
}

// Outcome returns the last outcome observed. Valid once Start has been
// called.
func (s *Session) Outcome() infer.Outcome {
	return s.outcome
}

// Transcript returns a copy of the Q&A exchanges so far, in order.
func (s *Session) Transcript() []Exchange {
	out := make([]Exchange, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Facts returns a copy of the facts known to the run, or nil if the
// session never started or was cancelled.
func (s *Session) Facts() map[string]string {
	if s.eng == nil {
		return nil
	}
	return s.eng.Memory()
}

// FiredRules returns the IDs of the rules the run has fired, ascending,
// or nil if the session never started or was cancelled.
func (s *Session) FiredRules() []int {
	if s.eng == nil {
		return nil
	}
	return s.eng.FiredRules()
}

// observe records the outcome and advances the lifecycle state.
func (s *Session) observe(out infer.Outcome) infer.Outcome {
	s.outcome = out
	switch out.Kind {
	case infer.NeedsInput:
		s.state = Waiting
		s.transcript = append(s.transcript, Exchange{
			Category: out.Category,
			Prompt:   out.Prompt,
			AskedAt:  time.Now(),
		})
	default:
		s.state = Finished
	}
	return out
}
