package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/tiger/internal/artifact"
	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/executor"
)

func newDeployCmd(d change.Direction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   d.String() + " pre|post <artifact...>",
		Short: fmt.Sprintf("Replay the %s scripts of packaged artifacts", d),
		Long: fmt.Sprintf(`Fetch each artifact from the object store and print the %s script of
every change with the given timing, in order. With --commit the scripts are
also executed against the SQL target; the first failure stops the run.`, d),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, d, args)
		},
	}

	cmd.Flags().BoolP("commit", "r", false, "execute scripts against the SQL target")

	return cmd
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(newDeployCmd(change.Up), newDeployCmd(change.Down))
}

func runDeploy(cmd *cobra.Command, d change.Direction, args []string) error {
	timing, err := change.ParseTiming(args[0])
	if err != nil {
		return err
	}

	commit, _ := cmd.Flags().GetBool("commit")
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	st, err := newObjectStore(AppConfig)
	if err != nil {
		return err
	}

	var target executor.Target

	if commit {
		sess, err := openSQL(ctx, AppConfig, logger)
		if err != nil {
			return fmt.Errorf("connecting to SQL target: %w", err)
		}

		defer func() {
			if cerr := sess.Close(ctx); cerr != nil {
				logger.Warn("closing SQL target", "error", cerr)
			}
		}()

		if err := sess.Lock(ctx); err != nil {
			return err
		}

		target = sess
	}

	exec := executor.New(target,
		executor.WithCommit(commit),
		executor.WithOutput(out),
		executor.WithLogger(logger),
		executor.WithProgressCallback(func(event executor.ProgressEvent) {
			switch event.Status {
			case executor.StatusCompleted:
				fmt.Fprintf(out, "> %s done (%s)\n", event.Change.Hash, event.Duration.Truncate(time.Millisecond))
			case executor.StatusFailed:
				fmt.Fprintf(out, "> %s FAILED: %v\n", event.Change.Hash, event.Error)
			}
		}),
	)

	executed := 0

	for _, name := range args[1:] {
		pkg, err := artifact.Load(ctx, st, name)
		if err != nil {
			return err
		}

		sum, err := exec.Run(ctx, pkg.Name, pkg.All(), timing, d)
		if err != nil {
			return err
		}

		executed += sum.Executed
	}

	if commit {
		fmt.Fprintf(out, "\n%s %s complete: %d change(s) executed.\n", d, timing, executed)
	} else {
		fmt.Fprintf(out, "\nSimulation complete: nothing executed. Pass -r to commit.\n")
	}

	return nil
}
