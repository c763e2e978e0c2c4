package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/tiger/internal/artifact"
	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/database"
	"github.com/aqasim81/tiger/internal/parser"
	"github.com/aqasim81/tiger/internal/project"
)

func TestRunProject_usageErrors(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-1")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "missing action", args: []string{"TK-1"}, wantErr: errUsage},
		{name: "unknown action", args: []string{"TK-1", "explode"}, wantErr: errUsage},
		{name: "too few args", args: []string{"TK-1", "rm"}, wantErr: errUsage},
		{name: "too many args", args: []string{"TK-1", "ls", "extra"}, wantErr: errUsage},
		{name: "unknown project", args: []string{"TK-404", "ls"}, wantErr: project.ErrProjectNotFound},
		{name: "bad change type", args: []string{"TK-1", "pre", "shell"}, wantErr: change.ErrInvalidType},
		{name: "bad direction", args: []string{"TK-1", "simulate", "sideways"}, wantErr: change.ErrInvalidDirection},
		{name: "unknown hash", args: []string{"TK-1", "rm", "ffff"}, wantErr: project.ErrChangeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.project(t, tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunInit_duplicate(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-1")

	err := runInit(flagCmd(), []string{"TK-1"})

	require.ErrorIs(t, err, project.ErrProjectExists)
}

func TestAddListRemove(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-1")

	out, err := h.project(t, "TK-1", "pre", "sql")
	require.NoError(t, err)
	assert.Contains(t, out, "> Added pre sql change")

	_, err = h.project(t, "TK-1", "post", "sql")
	require.NoError(t, err)

	p := h.load(t, "TK-1")
	require.Len(t, p.Changes, 2)

	out, err = h.project(t, "TK-1", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, p.Changes[0].Hash)
	assert.Contains(t, out, p.Changes[1].Hash)

	out, err = h.project(t, "TK-1", "rm", p.Changes[0].Hash[:12])
	require.NoError(t, err)
	assert.Contains(t, out, "Removed change "+p.Changes[0].Hash)

	_, err = os.Stat(p.ChangeDir(p.Changes[0].Hash))
	require.ErrorIs(t, err, os.ErrNotExist)

	out, err = h.project(t, "TK-1", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 change(s)")
	assert.Empty(t, h.load(t, "TK-1").Changes)
}

func TestEdit_opensBothScripts(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-1")
	m := h.addChange(t, "TK-1", "pre", "SELECT 1;", "SELECT 2;")

	_, err := h.project(t, "TK-1", "edit", m.Hash[:6])
	require.NoError(t, err)

	live := h.load(t, "TK-1").Live(m)
	require.Len(t, h.edited, 1)
	assert.Equal(t, []string{live.ScriptPath(change.Up), live.ScriptPath(change.Down)}, h.edited[0])
}

func TestSimulate_printsLiveScripts(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-1")
	h.addChange(t, "TK-1", "post", "DROP TABLE old;", "CREATE TABLE old (id INT);")
	h.addChange(t, "TK-1", "pre", "CREATE TABLE new (id INT);", "DROP TABLE new;")

	out, err := h.project(t, "TK-1", "simulate", "up")
	require.NoError(t, err)

	assert.Contains(t, out, "> Pre-deploy changes: 1")
	assert.Contains(t, out, "> Post-deploy changes: 1")
	assert.Less(t, indexOf(t, out, "CREATE TABLE new"), indexOf(t, out, "DROP TABLE old"))
}

func TestPackage_writesOnceWithTemplate(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-123")
	h.addChange(t, "TK-123", "pre", "CREATE TABLE t (id INT);", "DROP TABLE t;")

	out, err := h.project(t, "TK-123", "package", "%-1")
	require.NoError(t, err)
	assert.Contains(t, out, "as TK-123-1.bin")
	assert.Equal(t, []string{"TK-123-1.bin"}, h.store.Keys())

	_, err = h.project(t, "TK-123", "package", "TK-123-1")
	require.ErrorIs(t, err, artifact.ErrArtifactExists)
}

func TestPackage_postgresDriverVerifiesSyntax(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.cfg.SQL.Driver = database.DriverPostgres
	h.initProject(t, "TK-1")
	h.addChange(t, "TK-1", "pre", "CREATE TABLE t (id INT);", "DROP TABLE t")
	h.addChange(t, "TK-1", "pre", "CREATE TABLE (id INT);", "")

	_, err := h.project(t, "TK-1", "package", "%")

	require.ErrorIs(t, err, artifact.ErrInvalidScript)
	require.ErrorIs(t, err, parser.ErrInvalidSQL)
	assert.Empty(t, h.store.Keys())
}

func TestCheck(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-1")
	m := h.addChange(t, "TK-1", "pre", "CREATE TABLE t (id INT);", "DROP TABLE t;")

	out, err := h.project(t, "TK-1", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+m.Hash+"/up.sql (1 statement(s): CreateStmt)")
	assert.Contains(t, out, "ok   "+m.Hash+"/down.sql (1 statement(s): DropStmt)")
	assert.Contains(t, out, "All scripts of TK-1 parse")

	bad := h.addChange(t, "TK-1", "post", "ALTER TABLE t ADD COLUMN;", "")

	out, err = h.project(t, "TK-1", "check")
	require.ErrorIs(t, err, parser.ErrInvalidSQL)
	assert.Contains(t, out, "FAIL "+bad.Hash+"/up.sql")
	assert.Contains(t, out, "ok   "+bad.Hash+"/down.sql (0 statement(s))\n")
}

func TestDiff_reportsEdits(t *testing.T) { //nolint:paralleltest // writes package globals
	h := newHarness(t)
	h.initProject(t, "TK-1")
	m := h.addChange(t, "TK-1", "pre", "SELECT 1;", "SELECT 2;")

	_, err := h.project(t, "TK-1", "package", "%-v1")
	require.NoError(t, err)

	p := h.load(t, "TK-1")
	require.NoError(t, os.WriteFile(filepath.Join(p.ChangeDir(m.Hash), "up.sql"), []byte("SELECT 10;"), 0o644))

	out, err := h.project(t, "TK-1", "diff", "%-v1")
	require.NoError(t, err)
	assert.Contains(t, out, "modified")
	assert.Contains(t, out, m.Hash+" (up.sql)")

	_, err = h.project(t, "TK-1", "diff", "%-v2")
	require.ErrorIs(t, err, artifact.ErrArtifactNotFound)
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()

	i := strings.Index(s, sub)
	require.GreaterOrEqual(t, i, 0, "%q not found in output:\n%s", sub, s)

	return i
}
