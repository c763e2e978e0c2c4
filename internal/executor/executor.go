package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aqasim81/tiger/internal/change"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// ProgressEvent is emitted by the executor for each change processed.
type ProgressEvent struct {
	Project  string
	Change   change.Meta
	Status   string
	Duration time.Duration
	Error    error
}

// Target is the SQL capability: run one statement batch verbatim.
type Target interface {
	Exec(ctx context.Context, sql string) error
}

// Summary reports what a run did for one project.
type Summary struct {
	Project  string
	Matched  int
	Executed int
	Skipped  int
}

// Executor replays packaged changes against a Target. Without commit mode it
// only prints the scripts and the target is never called.
type Executor struct {
	target     Target
	commit     bool
	out        io.Writer
	logger     *slog.Logger
	onProgress func(ProgressEvent)
}

// Option configures an Executor.
type Option func(*Executor)

// WithCommit enables sending scripts to the target.
func WithCommit(b bool) Option {
	return func(e *Executor) { e.commit = b }
}

// WithOutput sets where scripts and headers are printed.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) { e.out = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithProgressCallback sets a function called for each change processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// New creates an Executor. target may be nil when commit mode is off.
func New(target Target, opts ...Option) *Executor {
	e := &Executor{target: target}

	for _, opt := range opts {
		opt(e)
	}

	if e.out == nil {
		e.out = io.Discard
	}

	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	return e
}

// Committing reports whether scripts are sent to the target.
func (e *Executor) Committing() bool { return e.commit }

// Run processes the changes of one project that have the given timing, in
// list order. A project with no matching change reports it and returns a
// zero Summary without error. The first execution failure stops the run.
//
// In commit mode every script is sent to the target verbatim, except one
// that is empty or whitespace only: it is printed, logged as a warning and
// counted in Summary.Skipped without reaching the target.
func (e *Executor) Run(
	ctx context.Context,
	projectName string,
	changes []change.Change,
	timing change.Timing,
	d change.Direction,
) (Summary, error) {
	sum := Summary{Project: projectName}

	matched := Filter(changes, timing)
	if len(matched) == 0 {
		fmt.Fprintf(e.out, "> %s: no %s changes\n", projectName, timing)
		return sum, nil
	}

	sum.Matched = len(matched)
	rule := strings.Repeat("-", ruleWidth)

	mode := "simulation only, pass -r to commit"
	if e.commit {
		mode = "committing"
	}

	fmt.Fprintf(e.out, "> %s: %d %s change(s), %s (%s)\n%s\n", projectName, len(matched), timing, d, mode, rule)

	for _, c := range matched {
		executed, err := e.runOne(ctx, projectName, c, d)
		if err != nil {
			return sum, err
		}

		if executed {
			sum.Executed++
		} else {
			sum.Skipped++
		}
	}

	fmt.Fprintln(e.out, rule)

	return sum, nil
}

// runOne prints a change's script and executes it in commit mode. It
// reports whether the target was called.
func (e *Executor) runOne(ctx context.Context, projectName string, c change.Change, d change.Direction) (bool, error) {
	meta := c.Metadata()

	body, err := c.Content(d)
	if err != nil {
		return false, fmt.Errorf("resolving %s script of change %s: %w", d, meta.Hash, err)
	}

	fmt.Fprintln(e.out, body)

	if !e.commit {
		e.fireProgress(ProgressEvent{Project: projectName, Change: meta, Status: StatusSkipped})
		return false, nil
	}

	if strings.TrimSpace(body) == "" {
		e.logger.Warn("skipping empty script", "project", projectName, "hash", meta.Hash, "direction", d.String())
		e.fireProgress(ProgressEvent{Project: projectName, Change: meta, Status: StatusSkipped})

		return false, nil
	}

	e.fireProgress(ProgressEvent{Project: projectName, Change: meta, Status: StatusStarting})

	start := time.Now()
	execErr := e.dispatch(ctx, meta, body)
	duration := time.Since(start)

	if execErr != nil {
		e.fireProgress(ProgressEvent{
			Project:  projectName,
			Change:   meta,
			Status:   StatusFailed,
			Duration: duration,
			Error:    execErr,
		})

		return false, fmt.Errorf("change %s of %s: %w", meta.Hash, projectName, execErr)
	}

	e.logger.Info("executed change", "project", projectName, "hash", meta.Hash, "duration", duration)
	e.fireProgress(ProgressEvent{Project: projectName, Change: meta, Status: StatusCompleted, Duration: duration})

	return true, nil
}

// dispatch runs a script according to its change type.
func (e *Executor) dispatch(ctx context.Context, meta change.Meta, body string) error {
	switch meta.Type {
	case change.SQL:
		if e.target == nil {
			return fmt.Errorf("%w: no SQL target configured", ErrExecutionFailed)
		}

		if err := e.target.Exec(ctx, body); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, meta.Type)
	}
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}
