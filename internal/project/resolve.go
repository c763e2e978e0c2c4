package project

import (
	"fmt"
	"strings"

	"github.com/aqasim81/tiger/internal/change"
)

// MatchKind is the outcome of resolving a hash prefix.
type MatchKind int

const (
	// NotFound means no change hash starts with the prefix.
	NotFound MatchKind = iota
	// Unique means exactly one change hash starts with the prefix.
	Unique
	// Ambiguous means two or more change hashes start with the prefix.
	Ambiguous
)

// SearchResult pairs a matched change with its position in the change list.
type SearchResult struct {
	Change change.Meta
	Index  int
}

// Match is the tagged result of a prefix lookup. Result is only meaningful
// when Kind is Unique; Candidates lists every matching hash in list order.
type Match struct {
	Kind       MatchKind
	Result     SearchResult
	Candidates []string
}

// Resolve scans the change list for hashes starting with prefix.
func (p *Project) Resolve(prefix string) Match {
	var m Match

	for i, c := range p.Changes {
		if !strings.HasPrefix(c.Hash, prefix) {
			continue
		}

		m.Candidates = append(m.Candidates, c.Hash)
		if len(m.Candidates) == 1 {
			m.Result = SearchResult{Change: c, Index: i}
		}
	}

	switch len(m.Candidates) {
	case 0:
		m.Kind = NotFound
	case 1:
		m.Kind = Unique
	default:
		m.Kind = Ambiguous
		m.Result = SearchResult{}
	}

	return m
}

// Find resolves prefix to exactly one change or returns ErrChangeNotFound,
// ErrAmbiguousHash or ErrEmptyPrefix.
func (p *Project) Find(prefix string) (SearchResult, error) {
	if prefix == "" {
		return SearchResult{}, ErrEmptyPrefix
	}

	m := p.Resolve(prefix)

	switch m.Kind {
	case Unique:
		return m.Result, nil
	case Ambiguous:
		return SearchResult{}, fmt.Errorf("%w: %q matches %s; use a longer prefix",
			ErrAmbiguousHash, prefix, strings.Join(m.Candidates, ", "))
	default:
		return SearchResult{}, fmt.Errorf("%w: %q in project %s", ErrChangeNotFound, prefix, p.Name)
	}
}
