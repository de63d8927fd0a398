// Package search turns raw visitor input into a SQL filter over post titles and bodies.
//
// Input is reduced to ASCII letters, digits and spaces before it reaches the
// query, so the remaining term is always a literal when used as a Postgres
// regular expression.
package search

import (
	"fmt"
	"regexp"
	"strings"
)

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// Sanitize strips every character that is not an ASCII letter, digit or space.
func Sanitize(raw string) string {
	return disallowed.ReplaceAllString(raw, "")
}

// Filter is a WHERE fragment with positional arguments starting at $1.
type Filter struct {
	Term   string
	Clause string
	Args   []any
}

// Empty reports whether the filter matches nothing. Callers can skip the query.
func (f Filter) Empty() bool {
	return len(f.Args) == 0
}

// NextArg is the placeholder index for the first argument appended after the filter's own.
func (f Filter) NextArg() int {
	return len(f.Args) + 1
}

// Builder builds a Filter from raw input.
type Builder interface {
	Build(raw string) Filter
}

const (
	StrategySubstring = "substring"
	StrategyTokenized = "tokenized"
)

// NewBuilder returns the builder for strategy, defaulting to substring matching.
func NewBuilder(strategy string) Builder {
	if strategy == StrategyTokenized {
		return Tokenized{}
	}
	return Substring{}
}

// matchNothing is returned when nothing survives sanitising.
func matchNothing(term string) Filter {
	return Filter{Term: term, Clause: "FALSE"}
}

// Substring matches the whole sanitised term, case-insensitively, in the title or the body.
// Spaces are kept as typed, so whitespace-only input matches posts containing that whitespace.
type Substring struct{}

func (Substring) Build(raw string) Filter {
	term := Sanitize(raw)
	if term == "" {
		return matchNothing(term)
	}
	return Filter{
		Term:   term,
		Clause: "(title ~* $1 OR body ~* $1)",
		Args:   []any{term},
	}
}

// Tokenized requires every word of the sanitised term to appear in the title or the body.
type Tokenized struct{}

func (Tokenized) Build(raw string) Filter {
	words := strings.Fields(Sanitize(raw))
	term := strings.Join(words, " ")
	if len(words) == 0 {
		return matchNothing(term)
	}

	clauses := make([]string, 0, len(words))
	args := make([]any, 0, len(words))
	for i, w := range words {
		clauses = append(clauses, fmt.Sprintf("(title ~* $%d OR body ~* $%d)", i+1, i+1))
		args = append(args, w)
	}
	return Filter{
		Term:   term,
		Clause: strings.Join(clauses, " AND "),
		Args:   args,
	}
}
