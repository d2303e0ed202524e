package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/config"
	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
)

// annotationNoStore marks commands that run without opening the database.
const annotationNoStore = "worktime/no-store"

var (
	flagConfig string
	flagDB     string
	flagUser   string

	// sess is set up by the root PersistentPreRunE for every command.
	sess *session
)

var rootCmd = &cobra.Command{
	Use:   "worktime",
	Short: "worktime - time tracking with daily targets and overlap checks",
	Long: `worktime tracks work against projects, either through the local
commands below or as a REST service (worktime serve). All data lives in a
single SQLite database, ~/.worktime/worktime.db by default.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute is the entry point called from main.
func Execute() {
	err := rootCmd.Execute()
	closeSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.worktime/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database (overrides db.path)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "User ID the command acts as (overrides cli.user_id)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outlookCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(tokenCmd)
}

// session is what a command runs against.
type session struct {
	cfg    config.Config
	store  *storage.Store
	logger zerolog.Logger
	userID string
	loc    *time.Location
	now    func() time.Time
	out    io.Writer
	errOut io.Writer
}

func (s *session) ctx() context.Context {
	return context.Background()
}

// exitError carries the process exit code: 1 for usage errors, 2 for
// storage errors.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 1, err: fmt.Errorf(format, args...)}
}

func storageError(err error) error {
	return &exitError{code: 2, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// newLogger builds the zerolog logger for cfg, writing to w.
func newLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if err != nil {
		logger.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
	}
	return logger
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, created, err := config.Load(flagConfig)
	if err != nil {
		return usageError("%v", err)
	}
	logger := newLogger(cfg.Log, os.Stderr)
	if created {
		path := flagConfig
		if path == "" {
			path, _ = config.DefaultPath()
		}
		fmt.Fprintf(os.Stderr, "Created default config at %s\n", path)
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		userID: cfg.CLI.UserID,
		loc:    cfg.Location(),
		now:    time.Now,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	if flagUser != "" {
		s.userID = flagUser
	}
	sess = s

	if cmd.Annotations[annotationNoStore] == "true" {
		return nil
	}

	path := flagDB
	if path == "" {
		path = cfg.DB.Path
	}
	if path == "" {
		if path, err = storage.DefaultPath(); err != nil {
			return storageError(err)
		}
	}
	store, err := storage.Open(path, logger)
	if err != nil {
		return storageError(err)
	}
	s.store = store

	// serve records its callers itself.
	if cmd.Name() != "serve" {
		u := &model.User{ID: s.userID}
		if err := store.UpsertUser(s.ctx(), u); err != nil {
			return storageError(err)
		}
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	closeSession()
	return nil
}

func closeSession() {
	if sess == nil || sess.store == nil {
		return
	}
	if err := sess.store.Close(); err != nil {
		sess.logger.Warn().Err(err).Msg("closing store")
	}
	sess.store = nil
}
