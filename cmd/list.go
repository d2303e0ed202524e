package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

var (
	listToday bool
	listWeek  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := report.RangeDay
		if listWeek {
			kind = report.RangeWeek
		}
		return runList(sess, kind)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's entries (default)")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's entries")
	listCmd.MarkFlagsMutuallyExclusive("today", "week")
}

// loadWindow returns the session user's entries in the kind window around date.
func loadWindow(s *session, kind string, date time.Time) ([]model.TimeEntry, error) {
	from, to, err := report.Window(kind, date, s.loc)
	if err != nil {
		return nil, usageError("%v", err)
	}
	entries, err := s.store.ListEntries(s.ctx(), storage.EntryFilter{UserID: s.userID, From: &from, To: &to})
	if err != nil {
		return nil, storageError(err)
	}
	return entries, nil
}

func runList(s *session, kind string) error {
	entries, err := loadWindow(s, kind, s.now())
	if err != nil {
		return err
	}
	names, err := projectNames(s)
	if err != nil {
		return storageError(err)
	}
	printList(s.out, entries, names, s.loc)
	return nil
}

// printList groups entries by day and prints them.
func printList(w io.Writer, entries []model.TimeEntry, names report.ProjectNames, loc *time.Location) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	var currentDay string
	for _, e := range entries {
		day := timecalc.DayKeyOf(e.Start, loc)
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}

		startStr := e.Start.In(loc).Format("15:04")
		endStr := "ongoing"
		durStr := ""
		if e.End != nil {
			end := e.End.In(loc)
			endStr = end.Format("15:04")
			if !timecalc.SameDay(e.Start.In(loc), end) {
				endStr = end.Format("2006-01-02 15:04")
			}
		}
		if e.DurationSeconds != nil && e.End != nil {
			durStr = fmt.Sprintf(" (%s)", timecalc.FormatDuration(*e.DurationSeconds))
		}

		task := ""
		if e.Task != "" {
			task = "  " + e.Task
		}

		project := names[e.ProjectID]
		if project == "" {
			project = e.ProjectID
		}
		fmt.Fprintf(w, "%s-%s  %s%s%s\n", startStr, endStr, project, task, durStr)
	}
}
