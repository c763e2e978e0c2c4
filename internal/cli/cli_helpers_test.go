package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/config"
	"github.com/aqasim81/tiger/internal/database"
	"github.com/aqasim81/tiger/internal/project"
	"github.com/aqasim81/tiger/internal/store"
)

// harness points the package globals at a temp workspace, an in-memory
// object store and a SQLite target, restoring them when the test ends.
type harness struct {
	cfg    *config.Config
	store  *store.Memory
	edited [][]string
}

type recordingEditor struct{ h *harness }

func (e recordingEditor) Edit(_ context.Context, paths ...string) error {
	e.h.edited = append(e.h.edited, paths)
	return nil
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	oldCfg, oldStore, oldEditor := AppConfig, newObjectStore, newEditor
	t.Cleanup(func() {
		AppConfig, newObjectStore, newEditor = oldCfg, oldStore, oldEditor
	})

	h := &harness{cfg: config.New(), store: store.NewMemory()}
	h.cfg.Workspace = t.TempDir()
	h.cfg.SQL.Driver = database.DriverSQLite
	h.cfg.SQL.Host = filepath.Join(t.TempDir(), "target.db")

	AppConfig = h.cfg
	newObjectStore = func(*config.Config) (store.ObjectStore, error) { return h.store, nil }
	newEditor = func() project.Editor { return recordingEditor{h: h} }

	return h
}

func (h *harness) project(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	err := runProject(cmd, args)

	return buf.String(), err
}

func (h *harness) initProject(t *testing.T, name string) {
	t.Helper()

	cmd := &cobra.Command{}
	cmd.SetOut(new(bytes.Buffer))
	require.NoError(t, runInit(cmd, []string{name}))
}

func (h *harness) deploy(t *testing.T, d change.Direction, commit bool, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd := newDeployCmd(d)
	cmd.SetOut(buf)

	if commit {
		require.NoError(t, cmd.Flags().Set("commit", "true"))
	}

	err := runDeploy(cmd, d, args)

	return buf.String(), err
}

func (h *harness) load(t *testing.T, name string) *project.Project {
	t.Helper()

	p, err := workspace().Load(name)
	require.NoError(t, err)

	return p
}

// addChange adds a change through the CLI and fills in its scripts.
func (h *harness) addChange(t *testing.T, name, timing, up, down string) change.Meta {
	t.Helper()

	_, err := h.project(t, name, timing, "sql")
	require.NoError(t, err)

	p := h.load(t, name)
	m := p.Changes[len(p.Changes)-1]

	require.NoError(t, os.WriteFile(p.Live(m).ScriptPath(change.Up), []byte(up), 0o644))
	require.NoError(t, os.WriteFile(p.Live(m).ScriptPath(change.Down), []byte(down), 0o644))

	return m
}
