package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aqasim81/tiger/internal/artifact"
	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/database"
	"github.com/aqasim81/tiger/internal/executor"
	"github.com/aqasim81/tiger/internal/parser"
	"github.com/aqasim81/tiger/internal/project"
)

// projectAction is one verb of "tiger <project> <verb> [args]".
type projectAction struct {
	usage string
	nargs int
	run   func(cmd *cobra.Command, p *project.Project, args []string) error
}

//nolint:gochecknoglobals // dispatch table
var projectActions = map[string]projectAction{
	"pre":      {usage: "pre <type>", nargs: 1, run: addAction(change.Pre)},
	"post":     {usage: "post <type>", nargs: 1, run: addAction(change.Post)},
	"rm":       {usage: "rm <hash>", nargs: 1, run: runRemove},
	"ls":       {usage: "ls", run: runList},
	"clear":    {usage: "clear", run: runClear},
	"edit":     {usage: "edit <hash>", nargs: 1, run: runEdit},
	"simulate": {usage: "simulate up|down", nargs: 1, run: runSimulate},
	"package":  {usage: "package <artifact>", nargs: 1, run: runPackage},
	"diff":     {usage: "diff <artifact>", nargs: 1, run: runDiff},
	"check":    {usage: "check", run: runCheck},
}

func actionUsage() string {
	names := slices.Sorted(maps.Keys(projectActions))

	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, "tiger <project> "+projectActions[n].usage)
	}

	return strings.Join(lines, "\n")
}

// runProject handles every invocation that is not a registered subcommand.
func runProject(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	if len(args) < 2 {
		return fmt.Errorf("%w: missing action for project %q\n%s", errUsage, args[0], actionUsage())
	}

	name, verb, rest := args[0], args[1], args[2:]

	action, ok := projectActions[verb]
	if !ok {
		return fmt.Errorf("%w: %q is not a project action\n%s", errUsage, verb, actionUsage())
	}

	if len(rest) != action.nargs {
		return fmt.Errorf("%w: tiger %s %s", errUsage, name, action.usage)
	}

	p, err := workspace().Load(name)
	if err != nil {
		return err
	}

	return action.run(cmd, p, rest)
}

func addAction(timing change.Timing) func(*cobra.Command, *project.Project, []string) error {
	return func(cmd *cobra.Command, p *project.Project, args []string) error {
		ty, err := change.ParseType(args[0])
		if err != nil {
			return err
		}

		m, err := newManager().Add(p, timing, ty)
		if err != nil {
			return err
		}

		live := p.Live(m)
		fmt.Fprintf(cmd.OutOrStdout(), "> Added %s %s change %s\n  %s\n  %s\n",
			m.Timing, m.Type, m.Hash, live.ScriptPath(change.Up), live.ScriptPath(change.Down))

		return nil
	}
}

func newManager() *project.Manager {
	return project.NewManager(workspace(), project.WithLogger(logger))
}

func runRemove(cmd *cobra.Command, p *project.Project, args []string) error {
	m, err := newManager().Remove(p, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "> Removed change %s\n", m.Hash)

	return nil
}

func runList(cmd *cobra.Command, p *project.Project, _ []string) error {
	project.List(cmd.OutOrStdout(), p)
	return nil
}

func runClear(cmd *cobra.Command, p *project.Project, _ []string) error {
	removed, err := newManager().Clear(p)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "> Removed %d change(s)\n", len(removed))

	return nil
}

func runEdit(cmd *cobra.Command, p *project.Project, args []string) error {
	return newManager().Edit(commandContext(cmd), p, args[0], newEditor())
}

func runSimulate(cmd *cobra.Command, p *project.Project, args []string) error {
	d, err := change.ParseDirection(args[0])
	if err != nil {
		return err
	}

	return executor.Simulate(cmd.OutOrStdout(), p.LiveChanges(), d)
}

func runPackage(cmd *cobra.Command, p *project.Project, args []string) error {
	st, err := newObjectStore(AppConfig)
	if err != nil {
		return err
	}

	opts := []artifact.Option{artifact.WithLogger(logger)}
	if isPostgres(AppConfig.SQL.Driver) {
		opts = append(opts, artifact.WithVerifier(verifySQL))
	}

	name := artifact.ExpandName(args[0], p.Name)

	pkg, err := artifact.NewPackager(st, opts...).Package(commandContext(cmd), p, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "> Packaged %d change(s) of %s as %s\n", len(pkg.Changes), p.Name, artifact.Key(name))

	return nil
}

func runDiff(cmd *cobra.Command, p *project.Project, args []string) error {
	st, err := newObjectStore(AppConfig)
	if err != nil {
		return err
	}

	name := artifact.ExpandName(args[0], p.Name)

	pkg, err := artifact.Load(commandContext(cmd), st, name)
	if err != nil {
		return err
	}

	entries, err := artifact.Diff(p, pkg)
	if err != nil {
		return err
	}

	printDiff(cmd.OutOrStdout(), p.Name, name, entries)

	return nil
}

func printDiff(w io.Writer, projectName, artifactName string, entries []artifact.DiffEntry) {
	fmt.Fprintf(w, "> %s against %s\n\n", projectName, artifactName)

	for _, e := range entries {
		detail := ""
		if len(e.Scripts) > 0 {
			detail = " (" + strings.Join(e.Scripts, ", ") + ")"
		}

		fmt.Fprintf(w, "  %-9s %-4s %s%s\n", e.Status, e.Timing, e.Hash, detail)
	}

	fmt.Fprintln(w)
}

func runCheck(cmd *cobra.Command, p *project.Project, _ []string) error {
	out := cmd.OutOrStdout()
	failed := 0

	for _, c := range p.LiveChanges() {
		m := c.Metadata()

		for _, d := range []change.Direction{change.Up, change.Down} {
			body, err := c.Content(d)
			if err != nil {
				return err
			}

			res, err := parser.Parse(body)
			if err != nil {
				failed++
				fmt.Fprintf(out, "  FAIL %s/%s: %v\n", m.Hash, d.FileName(), err)

				continue
			}

			kinds := res.Kinds()
			logger.Debug("script parsed", "hash", m.Hash, "direction", d.String(), "statements", len(kinds))

			fmt.Fprintf(out, "  ok   %s/%s (%d statement(s)", m.Hash, d.FileName(), len(kinds))
			if len(kinds) > 0 {
				fmt.Fprintf(out, ": %s", strings.Join(kinds, ", "))
			}

			fmt.Fprintln(out, ")")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d script(s) in %s", parser.ErrInvalidSQL, failed, p.Name)
	}

	fmt.Fprintf(out, "> All scripts of %s parse\n", p.Name)

	return nil
}

func verifySQL(sql string) error {
	_, err := parser.Verify(sql)
	return err
}

func isPostgres(driver string) bool {
	return driver == "" || driver == database.DriverPostgres
}
