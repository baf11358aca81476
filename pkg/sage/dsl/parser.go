// Package dsl recognizes the knowledge-base language: numbered
// condition/conclusion rules plus question, translation and tip
// bindings. Parsing is recursive descent with ordered alternatives
// (rule, advice, translation, tip) and first-failure error reporting.
package dsl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/sage/pkg/sage/internalerr"
)

// Fixed keyword tokens of the language.
const (
	kwIf          = "если"
	kwAnd         = "и"
	kwThen        = "то"
	kwQuestion    = "вопрос"
	kwTranslation = "перевод"
	kwTip         = "подсказка"
)

// SyntaxError reports malformed input at a specific position.
type SyntaxError struct {
	Offset   int // byte offset into the source
	Line     int // 1-based
	Column   int // 1-based, in runes
	Expected string
	Found    string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: expected %s, found %s", e.Line, e.Column, e.Expected, e.Found)
}

// Unwrap lets callers match the error with errors.Is(err, internalerr.ErrSyntax).
func (e *SyntaxError) Unwrap() error {
	return internalerr.ErrSyntax
}

// Parse recognizes the full source text as a sequence of entries.
// It returns the entries in source order, or a *SyntaxError at the
// earliest offset where no production can continue. Empty input is an
// error: a knowledge base holds at least one entry.
func Parse(src string) ([]Node, error) {
	p := &parser{src: src}

	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("a rule or binding entry", "end of input")
	}

	var nodes []Node
	for !p.eof() {
		n, err := p.entry()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		p.skipSpace()
	}

	return nodes, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

// entry parses one of the four forms, dispatching on the leading token.
// Alternatives are tried in the fixed order rule, advice, translation,
// tip; the leading tokens are disjoint, so the first alternative whose
// lead matches is committed to.
func (p *parser) entry() (Node, error) {
	start := p.pos

	if isDigit(p.peek()) {
		return p.rule(start)
	}

	word, off := p.token()
	switch word {
	case kwQuestion:
		return p.binding(KindAdvice, start)
	case kwTranslation:
		return p.binding(KindTranslation, start)
	case kwTip:
		return p.binding(KindTip, start)
	}

	p.pos = off
	return Node{}, p.errorf(
		fmt.Sprintf("a rule number, %q, %q or %q", kwQuestion, kwTranslation, kwTip),
		p.found())
}

// rule parses: number "если" pair ("и" pair)* "то" pair.
func (p *parser) rule(start int) (Node, error) {
	id, err := p.number()
	if err != nil {
		return Node{}, err
	}

	if err := p.keyword(kwIf); err != nil {
		return Node{}, err
	}

	var conds []Pair
	for {
		pair, err := p.pair()
		if err != nil {
			return Node{}, err
		}
		conds = append(conds, pair)

		word, off := p.token()
		if word == kwAnd {
			continue
		}
		if word == kwThen {
			break
		}
		p.pos = off
		return Node{}, p.errorf(fmt.Sprintf("%q or %q", kwAnd, kwThen), p.found())
	}

	conclusion, err := p.pair()
	if err != nil {
		return Node{}, err
	}

	return Node{
		Kind:       KindRule,
		Offset:     start,
		ID:         id,
		Conditions: conds,
		Conclusion: conclusion,
	}, nil
}

// binding parses the common tail of advice, translation and tip
// entries: a category token followed by optional free text. The free
// text runs to the end of the line; a newline always begins a new
// entry.
func (p *parser) binding(kind Kind, start int) (Node, error) {
	p.skipSpace()
	category, _ := p.token()
	if category == "" {
		return Node{}, p.errorf("a category name", p.found())
	}

	p.skipInline()
	text := p.freeText()

	return Node{
		Kind:     kind,
		Offset:   start,
		Category: category,
		Text:     strings.TrimRight(text, " "),
	}, nil
}

// pair parses category "-" value with no whitespace around the hyphen.
func (p *parser) pair() (Pair, error) {
	p.skipSpace()
	category, _ := p.token()
	if category == "" {
		return Pair{}, p.errorf("a category name", p.found())
	}
	if p.peek() != '-' {
		return Pair{}, p.errorf(`"-" directly after the category`, p.found())
	}
	p.pos++
	value := p.bareToken()
	if value == "" {
		return Pair{}, p.errorf("a value directly after \"-\"", p.found())
	}
	return Pair{Category: category, Value: value}, nil
}

// number parses a rule identifier: one or more decimal digits.
func (p *parser) number() (int, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return 0, p.errorf("a rule number", p.found())
	}
	id, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		p.pos = start
		return 0, p.errorf("a rule number", p.found())
	}
	return id, nil
}

// keyword consumes the next token and requires it to equal want.
func (p *parser) keyword(want string) error {
	word, off := p.token()
	if word != want {
		p.pos = off
		return p.errorf(fmt.Sprintf("%q", want), p.found())
	}
	return nil
}

// token skips leading whitespace and consumes a run of letters, digits
// and underscores. It returns the token (possibly empty) and the byte
// offset where it starts.
func (p *parser) token() (string, int) {
	p.skipSpace()
	start := p.pos
	return p.bareToken(), start
}

// bareToken consumes a token at the current position without skipping
// whitespace first.
func (p *parser) bareToken() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isTokenRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

// freeText consumes a run of free-text runes: letters, digits, space,
// hyphen, underscore, "?", "(", ")" and "/". Any other rune, notably a
// newline, ends the run.
func (p *parser) freeText() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isFreeTextRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

// skipSpace consumes spaces, tabs, newlines and carriage returns.
func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// skipInline consumes spaces and tabs only, never crossing a line end.
func (p *parser) skipInline() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

// found describes what sits at the current position, for error messages.
func (p *parser) found() string {
	if p.eof() {
		return "end of input"
	}
	rest := p.src[p.pos:]
	if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
		rest = rest[:i]
	}
	if r := []rune(rest); len(r) > 12 {
		rest = string(r[:12]) + "..."
	}
	return fmt.Sprintf("%q", rest)
}

// errorf builds a *SyntaxError at the current position.
func (p *parser) errorf(expected, found string) error {
	line, col := 1, 1
	for _, r := range p.src[:p.pos] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &SyntaxError{
		Offset:   p.pos,
		Line:     line,
		Column:   col,
		Expected: expected,
		Found:    found,
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// isTokenRune reports whether r may appear in a category or value
// token. Letters and digits are Unicode classes: the language is used
// with Cyrillic identifiers.
func isTokenRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isFreeTextRune(r rune) bool {
	switch r {
	case ' ', '-', '_', '?', '(', ')', '/':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
