package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/cognicore/sage/pkg/sage/dsl"
	"github.com/cognicore/sage/pkg/sage/infer"
	"github.com/cognicore/sage/pkg/sage/internalerr"
	"github.com/cognicore/sage/pkg/sage/kb"
)

const weatherKB = `1 если погода-дождь то действие-зонт
2 если погода-солнце то действие-очки
вопрос погода Какая сегодня погода?
перевод действие Рекомендация`

func mustBuild(t *testing.T, src string) *kb.KB {
	t.Helper()
	nodes, err := dsl.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	base, err := kb.Build(nodes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return base
}

func TestStartAnswerResolve(t *testing.T) {
	s := New(mustBuild(t, weatherKB))

	if s.State() != Idle {
		t.Fatalf("Expected idle state, got %v", s.State())
	}
	if s.ID() == "" {
		t.Error("Expected a session id")
	}

	out, err := s.Start("действие")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if out.Kind != infer.NeedsInput || out.Category != "погода" {
		t.Fatalf("Expected погода question, got %+v", out)
	}
	if s.State() != Waiting {
		t.Errorf("Expected waiting state, got %v", s.State())
	}

	out, err = s.Answer("погода", "дождь")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if out.Kind != infer.Resolved || out.Fact.Value != "зонт" {
		t.Errorf("Expected действие-зонт, got %+v", out)
	}
	if s.State() != Finished {
		t.Errorf("Expected finished state, got %v", s.State())
	}
}

func TestStartWithInitialFacts(t *testing.T) {
	s := New(mustBuild(t, weatherKB), WithInitialFacts(map[string]string{"погода": "солнце"}))

	out, err := s.Start("действие")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if out.Kind != infer.Resolved || out.Fact.Value != "очки" {
		t.Errorf("Expected действие-очки without questions, got %+v", out)
	}
	if len(s.Transcript()) != 0 {
		t.Errorf("Expected empty transcript, got %+v", s.Transcript())
	}
}

func TestTranscript(t *testing.T) {
	s := New(mustBuild(t, weatherKB))

	if _, err := s.Start("действие"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Answer("погода", "дождь"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	tr := s.Transcript()
	if len(tr) != 1 {
		t.Fatalf("Expected 1 exchange, got %d", len(tr))
	}
	x := tr[0]
	if x.Category != "погода" || x.Prompt != "Какая сегодня погода?" || x.Value != "дождь" {
		t.Errorf("Unexpected exchange: %+v", x)
	}
	if x.AskedAt.IsZero() || x.AnsweredAt.IsZero() {
		t.Error("Expected ask/answer timestamps")
	}

	fired := s.FiredRules()
	if len(fired) != 1 || fired[0] != 1 {
		t.Errorf("Expected fired rules [1], got %v", fired)
	}
	if facts := s.Facts(); facts["действие"] != "зонт" {
		t.Errorf("Unexpected facts: %v", facts)
	}
}

func TestMisuse(t *testing.T) {
	s := New(mustBuild(t, weatherKB))

	// Answer before Start.
	if _, err := s.Answer("погода", "дождь"); !errors.Is(err, internalerr.ErrSessionMisuse) {
		t.Errorf("Expected ErrSessionMisuse before Start, got %v", err)
	}

	if _, err := s.Start("действие"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Double Start.
	if _, err := s.Start("действие"); !errors.Is(err, internalerr.ErrSessionMisuse) {
		t.Errorf("Expected ErrSessionMisuse on double Start, got %v", err)
	}

	// Wrong category; also covers re-answering a category that is
	// already known, which must never mutate working memory.
	if _, err := s.Answer("сезон", "осень"); !errors.Is(err, internalerr.ErrSessionMisuse) {
		t.Errorf("Expected ErrSessionMisuse for wrong category, got %v", err)
	}

	if _, err := s.Answer("погода", "дождь"); err != nil {
		t.Fatalf("Answer after rejected answers: %v", err)
	}

	// Answer after the session finished.
	if _, err := s.Answer("погода", "солнце"); !errors.Is(err, internalerr.ErrSessionFinished) {
		t.Errorf("Expected ErrSessionFinished after finish, got %v", err)
	} else if !errors.Is(err, internalerr.ErrSessionMisuse) {
		t.Errorf("ErrSessionFinished should match ErrSessionMisuse, got %v", err)
	}
	if s.Facts()["действие"] != "зонт" {
		t.Error("Late answer must not change the outcome")
	}
}

func TestCancel(t *testing.T) {
	s := New(mustBuild(t, weatherKB))

	if _, err := s.Start("действие"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Cancel()

	if s.State() != Cancelled {
		t.Errorf("Expected cancelled state, got %v", s.State())
	}
	if s.Facts() != nil {
		t.Error("Cancel must discard working memory")
	}
	if s.FiredRules() != nil {
		t.Error("Cancel must discard the fired-rule set")
	}
	if _, err := s.Answer("погода", "дождь"); !errors.Is(err, internalerr.ErrSessionMisuse) {
		t.Errorf("Expected ErrSessionMisuse after cancel, got %v", err)
	}
	if _, err := s.Start("действие"); !errors.Is(err, internalerr.ErrSessionMisuse) {
		t.Errorf("Expected ErrSessionMisuse restarting a cancelled session, got %v", err)
	}
}

func TestUniqueIDs(t *testing.T) {
	base := mustBuild(t, weatherKB)
	a, b := New(base), New(base)
	if a.ID() == b.ID() {
		t.Errorf("Expected distinct session ids, got %q twice", a.ID())
	}
}

func TestConcurrentSessionsShareKB(t *testing.T) {
	base := mustBuild(t, weatherKB)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		value := "дождь"
		want := "зонт"
		if i%2 == 0 {
			value, want = "солнце", "очки"
		}
		go func() {
			defer wg.Done()

			s := New(base)
			out, err := s.Start("действие")
			if err != nil {
				t.Errorf("Start: %v", err)
				return
			}
			if out.Kind != infer.NeedsInput {
				t.Errorf("Expected NeedsInput, got %+v", out)
				return
			}
			out, err = s.Answer("погода", value)
			if err != nil {
				t.Errorf("Answer: %v", err)
				return
			}
			if out.Kind != infer.Resolved || out.Fact.Value != want {
				t.Errorf("Expected %s, got %+v", want, out)
			}
		}()
	}
	wg.Wait()
}
