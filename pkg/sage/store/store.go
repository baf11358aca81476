// Package store persists completed query transcripts for audit and
// explanation. The inference core itself never touches a store: a
// caller saves a session's transcript after the run ends, and no state
// is ever restored into a later query.
package store

import (
	"context"
	"time"

	"github.com/cognicore/sage/pkg/sage/infer"
	"github.com/cognicore/sage/pkg/sage/session"
)

// Store is the interface for persisting and querying transcripts.
type Store interface {
	Close() error

	SaveTranscript(ctx context.Context, t Transcript) error
	GetTranscript(ctx context.Context, id string) (Transcript, bool, error)
	ListTranscripts(ctx context.Context, limit int) ([]Transcript, error)
}

// Transcript is one finished (or cancelled) query session: what was
// asked, what was answered, and how it ended.
type Transcript struct {
	ID             string // session ULID
	Target         string
	Outcome        string // infer.OutcomeKind or session state name
	ResultCategory string
	ResultValue    string
	SavedAt        time.Time
	Exchanges      []Exchange
}

// Exchange is one question/answer step of a transcript.
type Exchange struct {
	Category   string
	Prompt     string
	Value      string
	AskedAt    time.Time
	AnsweredAt time.Time
}

// FromSession snapshots a session into a storable transcript.
func FromSession(s *session.Session) Transcript {
	t := Transcript{
		ID:      s.ID(),
		Target:  s.Target(),
		Outcome: s.State().String(),
		SavedAt: time.Now(),
	}

	out := s.Outcome()
	if s.State() == session.Finished {
		t.Outcome = out.Kind.String()
		if out.Kind == infer.Resolved {
			t.ResultCategory = out.Fact.Category
			t.ResultValue = out.Fact.Value
		}
	}

	for _, x := range s.Transcript() {
		t.Exchanges = append(t.Exchanges, Exchange{
			Category:   x.Category,
			Prompt:     x.Prompt,
			Value:      x.Value,
			AskedAt:    x.AskedAt,
			AnsweredAt: x.AnsweredAt,
		})
	}
	return t
}
