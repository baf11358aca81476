// Command expert-cli drives interactive queries against a knowledge
// base: it loads the source text, starts a session for a target
// category, asks the bound clarifying questions on stdin, prints the
// conclusion, and can persist the transcript to the audit store.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/sage/pkg/sage"
	"github.com/cognicore/sage/pkg/sage/config"
	"github.com/cognicore/sage/pkg/sage/infer"
	"github.com/cognicore/sage/pkg/sage/internalerr"
	"github.com/cognicore/sage/pkg/sage/kb"
	"github.com/cognicore/sage/pkg/sage/session"
	"github.com/cognicore/sage/pkg/sage/store"
	"github.com/cognicore/sage/pkg/sage/store/sqlite"
)

func main() {
	var (
		kbPath  = flag.String("kb", "", "Knowledge base file (required unless -config is given)")
		cfgPath = flag.String("config", "", "YAML config file (alternative to -kb)")
		dbPath  = flag.String("db", "", "SQLite audit database (optional)")
		target  = flag.String("target", "", "Category to resolve (empty: best conclusion)")
		facts   = flag.String("facts", "", "Initial facts as comma-separated category-value pairs")
		list    = flag.Int("list", 0, "List the N most recent saved transcripts and exit")
		show    = flag.String("show", "", "Print a saved transcript by session id and exit")
	)
	flag.Parse()

	ctx := context.Background()

	base, audit, def, err := load(ctx, *cfgPath, *kbPath, *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	if audit != nil {
		defer audit.Close()
	}

	if *list > 0 || *show != "" {
		if audit == nil {
			log.Fatal("-list and -show need an audit database (-db or audit_db_path)")
		}
		if *show != "" {
			err = showTranscript(ctx, os.Stdout, audit, *show)
		} else {
			err = listTranscripts(ctx, os.Stdout, audit, *list)
		}
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	initial := def.facts
	if *facts != "" {
		initial, err = parseFacts(*facts, initial)
		if err != nil {
			log.Fatal(err)
		}
	}

	want := *target
	if want == "" {
		want = def.target
	}

	s, err := runInteractive(base, want, initial, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	if audit != nil && s.State() != session.Idle {
		if err := audit.SaveTranscript(ctx, store.FromSession(s)); err != nil {
			log.Fatal(fmt.Errorf("save transcript: %w", err))
		}
		fmt.Printf("Transcript saved as %s\n", s.ID())
	}
}

type defaults struct {
	target string
	facts  map[string]string
}

// load builds the knowledge base and optional audit store from either
// a YAML config file or direct flags.
func load(ctx context.Context, cfgPath, kbPath, dbPath string) (*kb.KB, store.Store, defaults, error) {
	if cfgPath != "" {
		comp, err := (&config.Loader{Path: cfgPath}).Load(ctx)
		if err != nil {
			return nil, nil, defaults{}, err
		}
		d := defaults{target: comp.Config.DefaultTarget, facts: comp.Config.InitialFacts}
		return comp.Base, comp.Audit, d, nil
	}

	if kbPath == "" {
		return nil, nil, defaults{}, fmt.Errorf("-kb or -config required")
	}

	text, err := os.ReadFile(kbPath)
	if err != nil {
		return nil, nil, defaults{}, fmt.Errorf("read knowledge base: %w", err)
	}
	base, err := sage.LoadKnowledgeBase(string(text))
	if err != nil {
		return nil, nil, defaults{}, fmt.Errorf("load knowledge base: %w", err)
	}

	var audit store.Store
	if dbPath != "" {
		audit, err = sqlite.Open(ctx, dbPath)
		if err != nil {
			return nil, nil, defaults{}, fmt.Errorf("open audit store: %w", err)
		}
	}

	return base, audit, defaults{}, nil
}

// parseFacts reads "category-value,category-value" into a fact map,
// layered over any config-supplied defaults.
func parseFacts(arg string, base map[string]string) (map[string]string, error) {
	facts := make(map[string]string, len(base))
	for c, v := range base {
		facts[c] = v
	}

	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, value, ok := strings.Cut(part, "-")
		if !ok || category == "" || value == "" {
			return nil, fmt.Errorf("bad fact %q: want category-value", part)
		}
		facts[category] = value
	}
	return facts, nil
}

// runInteractive drives one session: it prints each question with the
// known answer choices, reads answers line by line, and reports the
// final outcome. An empty answer line cancels the session.
func runInteractive(base *kb.KB, target string, initial map[string]string, in io.Reader, out io.Writer) (*session.Session, error) {
	s := session.New(base, session.WithInitialFacts(initial))

	outcome, err := s.Start(target)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(in)
	for outcome.Kind == infer.NeedsInput {
		fmt.Fprintln(out, outcome.Prompt)
		if choices := base.ValuesFor(outcome.Category); len(choices) > 0 {
			fmt.Fprintf(out, "  [%s]\n", strings.Join(choices, ", "))
		}
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			s.Cancel()
			fmt.Fprintln(out, "\nCancelled.")
			return s, scanner.Err()
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			s.Cancel()
			fmt.Fprintln(out, "Cancelled.")
			return s, nil
		}

		outcome, err = s.Answer(outcome.Category, answer)
		if err != nil {
			return nil, err
		}
	}

	switch outcome.Kind {
	case infer.Resolved:
		fmt.Fprintln(out, sage.Describe(base, outcome.Fact))
	case infer.Exhausted:
		fmt.Fprintln(out, "No conclusion could be reached.")
	}
	return s, nil
}

// listTranscripts prints the most recent saved transcripts.
func listTranscripts(ctx context.Context, out io.Writer, audit store.Store, limit int) error {
	transcripts, err := audit.ListTranscripts(ctx, limit)
	if err != nil {
		return err
	}
	if len(transcripts) == 0 {
		fmt.Fprintln(out, "No transcripts saved.")
		return nil
	}

	for _, t := range transcripts {
		result := t.Outcome
		if t.ResultValue != "" {
			result = fmt.Sprintf("%s %s-%s", t.Outcome, t.ResultCategory, t.ResultValue)
		}
		fmt.Fprintf(out, "%s  %s  target=%s  %s\n",
			t.ID, t.SavedAt.Format("2006-01-02 15:04:05"), t.Target, result)
	}
	return nil
}

// showTranscript prints one saved transcript in full.
func showTranscript(ctx context.Context, out io.Writer, audit store.Store, id string) error {
	t, ok, err := audit.GetTranscript(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transcript %s: %w", id, internalerr.ErrNotFound)
	}

	fmt.Fprintf(out, "Session %s (target=%s, outcome=%s)\n", t.ID, t.Target, t.Outcome)
	for _, x := range t.Exchanges {
		fmt.Fprintf(out, "  Q [%s] %s\n  A %s\n", x.Category, x.Prompt, x.Value)
	}
	if t.ResultValue != "" {
		fmt.Fprintf(out, "  => %s-%s\n", t.ResultCategory, t.ResultValue)
	}
	return nil
}
