package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current timer status and today's progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(sess)
	},
}

func runStatus(s *session) error {
	active, err := s.store.FindRunning(s.ctx(), s.userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storageError(err)
	}

	if active != nil {
		fmt.Fprintln(s.out, "Running:")
		fmt.Fprintf(s.out, "  Project: %s\n", projectName(s, active.ProjectID))
		if active.Task != "" {
			fmt.Fprintf(s.out, "  Task: %s\n", active.Task)
		}
		fmt.Fprintf(s.out, "  Since: %s\n", active.Start.In(s.loc).Format("15:04"))
		fmt.Fprintf(s.out, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsedOf(s, *active)))
	} else {
		fmt.Fprintln(s.out, "No active timer.")
	}

	summary, err := buildSummary(s, report.RangeDay, s.now(), nil, "")
	if err != nil {
		return err
	}
	day := summary.Days[0]
	fmt.Fprintf(s.out, "Today: %s of %s h target (%s, %s)\n",
		timecalc.FormatDuration(day.TotalDurationSeconds),
		timecalc.FormatHours(day.Progress.TargetHours),
		day.Progress.PercentLabel(),
		day.Progress.Status)
	if len(day.OverlapIDs) > 0 {
		fmt.Fprintf(s.out, "Warning: %d overlapping entries today\n", len(day.OverlapIDs))
	}
	return nil
}
