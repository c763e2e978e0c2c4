package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ErrInvalidSQL indicates a script PostgreSQL would reject at parse time.
var ErrInvalidSQL = errors.New("invalid SQL")

// ParseResult holds the parsed AST and original SQL.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Parse parses a PostgreSQL SQL string and returns the AST.
// Returns an empty result (zero statements) for empty or whitespace-only input.
func Parse(sql string) (*ParseResult, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return &ParseResult{SQL: sql}, nil
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSQL, err)
	}

	return &ParseResult{
		Stmts: tree.Stmts,
		SQL:   sql,
	}, nil
}

// Verify parses sql and reports the number of statements it contains.
func Verify(sql string) (int, error) {
	res, err := Parse(sql)
	if err != nil {
		return 0, err
	}

	return len(res.Stmts), nil
}

// Kinds returns the statement node name of each parsed statement, for
// example "CreateStmt" or "IndexStmt".
func (r *ParseResult) Kinds() []string {
	kinds := make([]string, 0, len(r.Stmts))

	for _, s := range r.Stmts {
		name := fmt.Sprintf("%T", s.GetStmt().GetNode())
		kinds = append(kinds, strings.TrimPrefix(name, "*pg_query.Node_"))
	}

	return kinds
}
