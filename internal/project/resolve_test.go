package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/project"
)

func resolveFixture() *project.Project {
	return &project.Project{
		Name: "TK-1",
		Changes: []change.Meta{
			{Timing: change.Pre, Type: change.SQL, Hash: "abc123ff"},
			{Timing: change.Post, Type: change.SQL, Hash: "abd456ee"},
			{Timing: change.Pre, Type: change.SQL, Hash: "f00d"},
		},
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		prefix     string
		kind       project.MatchKind
		index      int
		candidates []string
	}{
		{name: "shared prefix is ambiguous", prefix: "ab", kind: project.Ambiguous, candidates: []string{"abc123ff", "abd456ee"}},
		{name: "longer prefix is unique", prefix: "abc", kind: project.Unique, index: 0, candidates: []string{"abc123ff"}},
		{name: "full hash is unique", prefix: "abd456ee", kind: project.Unique, index: 1, candidates: []string{"abd456ee"}},
		{name: "later entry index", prefix: "f", kind: project.Unique, index: 2, candidates: []string{"f00d"}},
		{name: "no match", prefix: "zzz", kind: project.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := resolveFixture()
			m := p.Resolve(tt.prefix)

			assert.Equal(t, tt.kind, m.Kind)
			assert.Equal(t, tt.candidates, m.Candidates)

			if tt.kind == project.Unique {
				assert.Equal(t, tt.index, m.Result.Index)
				assert.Equal(t, p.Changes[tt.index], m.Result.Change)
			}
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	p := resolveFixture()

	_, err := p.Find("ab")
	require.ErrorIs(t, err, project.ErrAmbiguousHash)
	assert.Contains(t, err.Error(), "longer prefix")

	res, err := p.Find("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123ff", res.Change.Hash)
	assert.Equal(t, 0, res.Index)

	_, err = p.Find("zzz")
	require.ErrorIs(t, err, project.ErrChangeNotFound)

	_, err = p.Find("")
	require.ErrorIs(t, err, project.ErrEmptyPrefix)
}
