package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/sage/pkg/sage/store"
)

func TestSaveGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	tr := store.Transcript{
		ID:             "01HZXW0001",
		Target:         "действие",
		Outcome:        "resolved",
		ResultCategory: "действие",
		ResultValue:    "зонт",
		SavedAt:        time.Now(),
		Exchanges: []store.Exchange{
			{Category: "погода", Prompt: "Какая сегодня погода?", Value: "дождь"},
		},
	}

	if err := s.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	got, ok, err := s.GetTranscript(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if !ok {
		t.Fatal("Expected transcript to be found")
	}
	if got.ResultValue != "зонт" || len(got.Exchanges) != 1 {
		t.Errorf("Unexpected transcript: %+v", got)
	}

	_, ok, err = s.GetTranscript(ctx, "missing")
	if err != nil {
		t.Fatalf("GetTranscript(missing): %v", err)
	}
	if ok {
		t.Error("Expected miss for unknown id")
	}
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		tr := store.Transcript{ID: id, Outcome: "exhausted", SavedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.SaveTranscript(ctx, tr); err != nil {
			t.Fatalf("SaveTranscript: %v", err)
		}
	}

	got, err := s.ListTranscripts(ctx, 2)
	if err != nil {
		t.Fatalf("ListTranscripts: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("Expected [c b], got %+v", got)
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	tr := store.Transcript{ID: "x", Outcome: "cancelled", SavedAt: time.Now()}
	if err := s.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	tr.Outcome = "resolved"
	if err := s.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	got, _, err := s.GetTranscript(ctx, "x")
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if got.Outcome != "resolved" {
		t.Errorf("Expected overwrite to win, got %q", got.Outcome)
	}
}
