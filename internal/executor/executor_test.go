package executor_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/executor"
)

// recordingTarget implements executor.Target and remembers every call.
type recordingTarget struct {
	calls  []string
	failOn string
	err    error
}

func (r *recordingTarget) Exec(_ context.Context, sql string) error {
	r.calls = append(r.calls, sql)

	if r.failOn != "" && sql == r.failOn {
		return r.err
	}

	return nil
}

func packaged(timing change.Timing, hash, up, down string) change.Packaged {
	return change.Packaged{
		Meta: change.Meta{Timing: timing, Type: change.SQL, Hash: hash},
		Up:   up,
		Down: down,
	}
}

func projectA() []change.Change {
	return []change.Change{
		packaged(change.Pre, "p1", "CREATE TABLE a (id INT);", "DROP TABLE a;"),
		packaged(change.Post, "q1", "ALTER TABLE a DROP COLUMN legacy;", "ALTER TABLE a ADD COLUMN legacy INT;"),
		packaged(change.Pre, "p2", "CREATE TABLE b (id INT);", "DROP TABLE b;"),
	}
}

func hashes(changes []change.Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Metadata().Hash
	}

	return out
}

func TestPartition_stableWithinClass(t *testing.T) {
	t.Parallel()

	changes := []change.Change{
		packaged(change.Post, "q1", "", ""),
		packaged(change.Pre, "p1", "", ""),
		packaged(change.Post, "q2", "", ""),
		packaged(change.Pre, "p2", "", ""),
		packaged(change.Pre, "p3", "", ""),
	}

	pre, post := executor.Partition(changes)

	assert.Equal(t, []string{"p1", "p2", "p3"}, hashes(pre))
	assert.Equal(t, []string{"q1", "q2"}, hashes(post))
}

func TestPartition_empty(t *testing.T) {
	t.Parallel()

	pre, post := executor.Partition(nil)

	assert.Empty(t, pre)
	assert.Empty(t, post)
}

func TestSimulate_printsPreBeforePost(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	require.NoError(t, executor.Simulate(buf, projectA(), change.Up))

	out := buf.String()
	assert.Contains(t, out, "> Pre-deploy changes: 2\n")
	assert.Contains(t, out, "> Post-deploy changes: 1\n")

	a := strings.Index(out, "CREATE TABLE a")
	b := strings.Index(out, "CREATE TABLE b")
	post := strings.Index(out, "DROP COLUMN legacy")

	require.True(t, a >= 0 && b >= 0 && post >= 0, out)
	assert.Less(t, a, b)
	assert.Less(t, b, post)
	assert.Less(t, strings.Index(out, "> PRE SCRIPTS"), strings.Index(out, "> POST SCRIPTS"))
	assert.True(t, strings.HasSuffix(out, "> Deployment complete\n\n"))
}

func TestSimulate_downDirection(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	require.NoError(t, executor.Simulate(buf, projectA(), change.Down))

	assert.Contains(t, buf.String(), "DROP TABLE a;")
	assert.NotContains(t, buf.String(), "CREATE TABLE a")
}

func TestSimulate_noChanges_printsZeroHeadersOnly(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	require.NoError(t, executor.Simulate(buf, nil, change.Up))

	assert.Equal(t, "> Pre-deploy changes: 0\n> Post-deploy changes: 0\n> Deployment complete\n\n", buf.String())
}

func TestSimulate_liveChangeMissingScript_fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "up.sql"), []byte("SELECT 1;"), 0o644))

	live := change.Live{Meta: change.Meta{Timing: change.Pre, Type: change.SQL, Hash: "abc"}, Dir: dir}

	require.NoError(t, executor.Simulate(new(bytes.Buffer), []change.Change{live}, change.Up))

	err := executor.Simulate(new(bytes.Buffer), []change.Change{live}, change.Down)
	require.ErrorIs(t, err, change.ErrScriptMissing)
}

func TestRun_simulationMode_neverCallsTarget(t *testing.T) {
	t.Parallel()

	target := &recordingTarget{}
	buf := new(bytes.Buffer)
	exec := executor.New(target, executor.WithOutput(buf))

	sum, err := exec.Run(context.Background(), "projectA", projectA(), change.Pre, change.Up)

	require.NoError(t, err)
	assert.Empty(t, target.calls)
	assert.Equal(t, executor.Summary{Project: "projectA", Matched: 2, Skipped: 2}, sum)
	assert.Contains(t, buf.String(), "CREATE TABLE a (id INT);")
	assert.Contains(t, buf.String(), "CREATE TABLE b (id INT);")
	assert.NotContains(t, buf.String(), "DROP COLUMN legacy")
}

func TestRun_commitMode_executesOnlyMatchingTimingInOrder(t *testing.T) {
	t.Parallel()

	target := &recordingTarget{}
	exec := executor.New(target, executor.WithCommit(true))

	sum, err := exec.Run(context.Background(), "projectA", projectA(), change.Pre, change.Up)

	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE a (id INT);", "CREATE TABLE b (id INT);"}, target.calls)
	assert.Equal(t, 2, sum.Executed)
}

func TestRun_commitMode_postDown(t *testing.T) {
	t.Parallel()

	target := &recordingTarget{}
	exec := executor.New(target, executor.WithCommit(true))

	_, err := exec.Run(context.Background(), "projectA", projectA(), change.Post, change.Down)

	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE a ADD COLUMN legacy INT;"}, target.calls)
}

func TestRun_noMatchingChanges_reportsAndSucceeds(t *testing.T) {
	t.Parallel()

	target := &recordingTarget{}
	buf := new(bytes.Buffer)
	exec := executor.New(target, executor.WithCommit(true), executor.WithOutput(buf))

	changes := []change.Change{packaged(change.Pre, "p1", "SELECT 1;", "")}

	sum, err := exec.Run(context.Background(), "projectB", changes, change.Post, change.Up)

	require.NoError(t, err)
	assert.Zero(t, sum.Matched)
	assert.Empty(t, target.calls)
	assert.Contains(t, buf.String(), "projectB: no post changes")
}

func TestRun_executionFailure_stopsImmediately(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("relation already exists")
	target := &recordingTarget{failOn: "CREATE TABLE a (id INT);", err: dbErr}

	var events []executor.ProgressEvent
	exec := executor.New(target,
		executor.WithCommit(true),
		executor.WithProgressCallback(func(ev executor.ProgressEvent) { events = append(events, ev) }),
	)

	sum, err := exec.Run(context.Background(), "projectA", projectA(), change.Pre, change.Up)

	require.ErrorIs(t, err, executor.ErrExecutionFailed)
	require.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "change p1 of projectA")
	assert.Equal(t, []string{"CREATE TABLE a (id INT);"}, target.calls, "second change must not run")
	assert.Zero(t, sum.Executed)

	require.Len(t, events, 2)
	assert.Equal(t, executor.StatusStarting, events[0].Status)
	assert.Equal(t, executor.StatusFailed, events[1].Status)
	assert.ErrorIs(t, events[1].Error, dbErr)
}

func TestRun_commitMode_blankScriptSkipped(t *testing.T) {
	t.Parallel()

	target := &recordingTarget{}
	exec := executor.New(target, executor.WithCommit(true))

	changes := []change.Change{
		packaged(change.Pre, "p1", "  \n", ""),
		packaged(change.Pre, "p2", "SELECT 2;", ""),
	}

	sum, err := exec.Run(context.Background(), "projectC", changes, change.Pre, change.Up)

	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 2;"}, target.calls)
	assert.Equal(t, executor.Summary{Project: "projectC", Matched: 2, Executed: 1, Skipped: 1}, sum)
}

func TestRun_unsupportedType_fails(t *testing.T) {
	t.Parallel()

	target := &recordingTarget{}
	exec := executor.New(target, executor.WithCommit(true))

	changes := []change.Change{change.Packaged{
		Meta: change.Meta{Timing: change.Pre, Type: change.Type(99), Hash: "x1"},
		Up:   "echo hi",
	}}

	_, err := exec.Run(context.Background(), "projectD", changes, change.Pre, change.Up)

	require.ErrorIs(t, err, executor.ErrUnsupportedType)
	assert.Empty(t, target.calls)
}

func TestRun_commitWithoutTarget_fails(t *testing.T) {
	t.Parallel()

	exec := executor.New(nil, executor.WithCommit(true))

	_, err := exec.Run(context.Background(), "projectA", projectA(), change.Pre, change.Up)

	require.ErrorIs(t, err, executor.ErrExecutionFailed)
}

func TestNew_defaults(t *testing.T) {
	t.Parallel()

	exec := executor.New(nil)

	require.NotNil(t, exec)
	assert.False(t, exec.Committing())
	assert.True(t, executor.New(nil, executor.WithCommit(true)).Committing())
}

func TestStatusConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "starting", executor.StatusStarting)
	assert.Equal(t, "completed", executor.StatusCompleted)
	assert.Equal(t, "failed", executor.StatusFailed)
	assert.Equal(t, "skipped", executor.StatusSkipped)
}
