package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aqasim81/tiger/internal/config"
)

const version = "0.1.0"

// errUsage marks malformed invocations.
var errUsage = errors.New("usage")

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// logger receives diagnostics, set during PersistentPreRunE.
var logger = slog.New(slog.DiscardHandler) //nolint:gochecknoglobals // shared like AppConfig

// rootCmd is the base command for the tiger CLI. Arguments that do not name
// a subcommand are project actions: tiger <project> <action> [args].
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "tiger <project> <action> [args]",
	Version: version,
	Short:   "Author, package and replay pre/post-deploy SQL changes",
	Long: `tiger groups SQL change scripts into named projects, splits them
into pre-deploy and post-deploy phases, packages a project into an immutable
artifact in S3, and replays packaged artifacts against a database.

  tiger init TK-123
  tiger TK-123 pre sql
  tiger TK-123 ls
  tiger TK-123 simulate up
  tiger TK-123 package %-1
  tiger up pre TK-123-1 -r`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogger(cmd); err != nil {
			return err
		}

		return loadConfig(cmd)
	},
	RunE: runProject,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "path to configuration file")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "optional dotenv file with TIGER_* variables")
	rootCmd.PersistentFlags().String("workspace", "", "directory holding projects")
	rootCmd.PersistentFlags().String("database-url", "", "SQL target (PostgreSQL URL or SQLite path)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	var dotenv []string
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		dotenv = append(dotenv, envFile)
	}

	if err := config.MergeEnv(cfg, dotenv...); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mergeFlags(cmd, cfg)

	logger.Debug("configuration loaded",
		"path", configPath,
		"workspace", cfg.Workspace,
		"driver", cfg.SQL.Driver,
		"sql", config.RedactURL(cfg.SQL.Host),
		"bucket", cfg.S3.Bucket,
	)

	AppConfig = cfg

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("workspace") {
		cfg.Workspace, _ = cmd.Flags().GetString("workspace")
	}

	if cmd.Flags().Changed("database-url") {
		cfg.SQL.Host, _ = cmd.Flags().GetString("database-url")
	}
}

// setupLogger builds the diagnostic logger on stderr from the log flags.
func setupLogger(cmd *cobra.Command) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	l, err := newLogger(cmd.ErrOrStderr(), levelName, format)
	if err != nil {
		return err
	}

	logger = l

	return nil
}

func newLogger(w io.Writer, levelName, format string) (*slog.Logger, error) {
	var level slog.Level

	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("%w: unknown log level %q", errUsage, levelName)
	}

	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", errUsage, format)
	}
}

// commandContext returns the command's context, or Background when run
// outside Execute as tests do.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
