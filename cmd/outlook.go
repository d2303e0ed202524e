package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/msgraph"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

var (
	outlookSyncFrom    string
	outlookSyncTo      string
	outlookSyncDate    string
	outlookSyncToday   bool
	outlookSyncDryRun  bool
	outlookSyncProject string
	outlookSyncTZ      string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Outlook calendar events into time entries",
	Args:  cobra.NoArgs,
	RunE:  runOutlookSync,
}

var outlookLogoutCmd = &cobra.Command{
	Use:         "logout",
	Short:       "Forget the cached Microsoft Graph token",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, err := newAuthenticator(sess)
		if err != nil {
			return err
		}
		if err := auth.Logout(); err != nil {
			return storageError(err)
		}
		fmt.Fprintf(sess.out, "Removed %s\n", auth.TokenPath())
		return nil
	},
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncToday, "today", false, "Sync only today (default)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncProject, "project", "", "Project for imported events (default outlook.default_project)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default outlook.timezone)")
	outlookCmd.AddCommand(outlookSyncCmd)
	outlookCmd.AddCommand(outlookLogoutCmd)
}

// newAuthenticator builds the Graph authenticator for the session config.
// The token lives next to the database directory, in ~/.worktime/auth.
func newAuthenticator(s *session) (*msgraph.Authenticator, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return nil, storageError(err)
	}
	path := filepath.Join(base, "auth", "msgraph_tokens.json")
	return msgraph.NewAuthenticator(s.cfg.Outlook.TenantID, s.cfg.Outlook.ClientID, path, s.out, s.logger), nil
}

// syncWindow resolves the --date, --from/--to and --today flags.
func syncWindow(s *session, date, fromValue, toValue string) (time.Time, time.Time, error) {
	now := s.now().In(s.loc)
	switch {
	case date != "":
		d, err := parseDate(s, "date", date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return timecalc.StartOfDay(d), timecalc.NextDay(d), nil

	case fromValue != "" || toValue != "":
		if fromValue == "" {
			return time.Time{}, time.Time{}, usageError("--from is required when --to is specified")
		}
		from, err := parseDate(s, "from", fromValue)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to := now
		if toValue != "" {
			if to, err = parseDate(s, "to", toValue); err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, usageError("--to is before --from")
		}
		return timecalc.StartOfDay(from), timecalc.NextDay(to), nil

	default:
		return timecalc.StartOfDay(now), timecalc.NextDay(now), nil
	}
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	s := sess
	from, to, err := syncWindow(s, outlookSyncDate, outlookSyncFrom, outlookSyncTo)
	if err != nil {
		return err
	}

	projectName := outlookSyncProject
	if projectName == "" {
		projectName = s.cfg.Outlook.DefaultProject
	}
	timezone := outlookSyncTZ
	if timezone == "" {
		timezone = s.cfg.Outlook.Timezone
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return usageError("invalid --timezone %q: %v", timezone, err)
		}
	}

	project, err := s.store.EnsureProject(s.ctx(), s.userID, projectName)
	if err != nil {
		return storageError(err)
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(s.out, "Syncing Outlook events (%s to %s)%s...\n\n",
		timecalc.DayKeyOf(from, s.loc), timecalc.DayKeyOf(to, s.loc), dryTag)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	auth, err := newAuthenticator(s)
	if err != nil {
		return err
	}
	httpClient, err := auth.HTTPClient(ctx)
	if err != nil {
		return usageError("Authentication failed: %v", err)
	}
	client := msgraph.NewClient(httpClient, "")

	events, err := client.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		return usageError("Failed to fetch calendar events: %v", err)
	}

	result, err := msgraph.SyncEvents(ctx, s.store, events, msgraph.SyncOptions{
		UserID:    s.userID,
		ProjectID: project.ID,
		Timezone:  timezone,
		DryRun:    outlookSyncDryRun,
		Out:       s.out,
		Logger:    s.logger,
	})
	if err != nil {
		return usageError("Sync error: %v", err)
	}

	printSyncSummary(s, result)
	if result.Errors > 0 {
		return storageError(errors.New("some events could not be synced"))
	}
	return nil
}

func printSyncSummary(s *session, result msgraph.SyncResult) {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Summary:")
	fmt.Fprintf(s.out, "  %d imported\n", result.Imported)
	fmt.Fprintf(s.out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(s.out, "  %d updated\n", result.Updated)
	if result.Filtered > 0 {
		fmt.Fprintf(s.out, "  %d filtered (cancelled, all-day, private or free)\n", result.Filtered)
	}
	if result.Errors > 0 {
		fmt.Fprintf(s.errOut, "  %d errors\n", result.Errors)
	}
}
