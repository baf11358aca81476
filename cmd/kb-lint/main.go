// Command kb-lint parses and validates a knowledge-base file and
// prints its structured contents: rules, questions, translations,
// tips, and every category with its known values.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/cognicore/sage/pkg/sage"
	"github.com/cognicore/sage/pkg/sage/dsl"
	"github.com/cognicore/sage/pkg/sage/kb"
)

func main() {
	var (
		kbPath = flag.String("kb", "", "Knowledge base file (required)")
		quiet  = flag.Bool("quiet", false, "Only report errors; print nothing on success")
	)
	flag.Parse()

	if *kbPath == "" {
		log.Fatal("-kb required")
	}

	text, err := os.ReadFile(*kbPath)
	if err != nil {
		log.Fatal(err)
	}

	base, err := sage.LoadKnowledgeBase(string(text))
	if err != nil {
		var serr *dsl.SyntaxError
		if errors.As(err, &serr) {
			log.Fatalf("%s:%d:%d: %v", *kbPath, serr.Line, serr.Column, serr)
		}
		log.Fatalf("%s: %v", *kbPath, err)
	}

	if *quiet {
		return
	}
	report(os.Stdout, base)
}

// report prints the knowledge-base contents in a stable order.
func report(out io.Writer, base *kb.KB) {
	fmt.Fprintf(out, "Rules (%d):\n", base.RuleCount())
	for _, r := range base.Rules() {
		fmt.Fprintf(out, "  %d: if", r.ID)
		for i, c := range r.Conditions {
			if i > 0 {
				fmt.Fprint(out, " and")
			}
			fmt.Fprintf(out, " %s", c)
		}
		fmt.Fprintf(out, " then %s\n", r.Conclusion)
	}

	printBindings(out, "Questions", base.Questions())
	printBindings(out, "Translations", base.Translations())
	printBindings(out, "Tips", base.Tips())

	fmt.Fprintln(out, "Categories:")
	for _, cat := range base.Categories() {
		fmt.Fprintf(out, "  %s: %v", cat, base.ValuesFor(cat))
		if _, ok := base.QuestionFor(cat); !ok && len(base.RulesConditioningOn(cat)) > 0 && len(base.RulesConcluding(cat)) == 0 {
			// A condition-only category with no question binding can
			// never be filled in during inference.
			fmt.Fprint(out, "  (unanswerable)")
		}
		fmt.Fprintln(out)
	}
}

func printBindings(out io.Writer, title string, m map[string]string) {
	if len(m) == 0 {
		return
	}

	cats := make([]string, 0, len(m))
	for c := range m {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	fmt.Fprintf(out, "%s (%d):\n", title, len(m))
	for _, c := range cats {
		fmt.Fprintf(out, "  %s: %s\n", c, m[c])
	}
}
