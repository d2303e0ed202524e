package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/storage"
)

var (
	reportDay       bool
	reportWeek      bool
	reportDate      string
	reportFormat    string
	reportThreshold float64
	reportProject   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show aggregated time report with targets, overlaps and long days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := report.RangeWeek
		if reportDay {
			kind = report.RangeDay
		}
		var threshold *float64
		if cmd.Flags().Changed("threshold") {
			threshold = &reportThreshold
		}
		return runReport(sess, kind, reportDate, reportFormat, threshold, reportProject)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportDay, "day", false, "Report a single day")
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report the ISO week (default)")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Day inside the reported range (YYYY-MM-DD); default today")
	reportCmd.Flags().StringVar(&reportFormat, "format", report.FormatMarkdown, "Output format: md, csv, json")
	reportCmd.Flags().Float64Var(&reportThreshold, "threshold", 0, "Long-day threshold in hours (default report.long_day_threshold_hours)")
	reportCmd.Flags().StringVar(&reportProject, "project", "", "Only include this project")
	reportCmd.MarkFlagsMutuallyExclusive("day", "week")
}

// buildSummary loads the session user's entries of the kind window around
// date and aggregates them. A nil threshold uses the configured one.
func buildSummary(s *session, kind string, date time.Time, threshold *float64, projectID string) (report.Summary, error) {
	from, to, err := report.Window(kind, date, s.loc)
	if err != nil {
		return report.Summary{}, usageError("%v", err)
	}
	if threshold == nil {
		configured := s.cfg.Report.LongDayThresholdHours
		threshold = &configured
	}

	entries, err := s.store.ListEntries(s.ctx(), storage.EntryFilter{
		UserID:    s.userID,
		ProjectID: projectID,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		return report.Summary{}, storageError(err)
	}

	settings, err := s.store.GetSettings(s.ctx())
	if err != nil {
		s.logger.Warn().Err(err).Msg("settings unavailable, using defaults")
	}

	return report.Build(entries, report.Options{
		Now:            s.now(),
		Location:       s.loc,
		ThresholdHours: threshold,
		Settings:       settings,
		From:           from,
		To:             to,
		Logger:         s.logger,
	}), nil
}

func runReport(s *session, kind, dateValue, format string, threshold *float64, projectName string) error {
	if threshold != nil && *threshold < 0 {
		return usageError("--threshold must not be negative")
	}
	date, err := parseDate(s, "date", dateValue)
	if err != nil {
		return err
	}

	projectID := ""
	if projectName != "" {
		p, err := s.store.ProjectByName(s.ctx(), s.userID, projectName)
		if errors.Is(err, storage.ErrNotFound) {
			return usageError("unknown project %q", projectName)
		}
		if err != nil {
			return storageError(err)
		}
		projectID = p.ID
	}

	summary, err := buildSummary(s, kind, date, threshold, projectID)
	if err != nil {
		return err
	}
	names, err := projectNames(s)
	if err != nil {
		return storageError(err)
	}
	if err := report.Render(s.out, summary, format, names); err != nil {
		return usageError("%v", err)
	}
	return nil
}
