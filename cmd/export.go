package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

var (
	exportFormat string
	exportFrom   string
	exportTo     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export time entries to stdout (default: this week)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(sess, exportFormat, exportFrom, exportTo)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", report.FormatCSV, "Output format: csv, json, md")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day (YYYY-MM-DD); defaults to today")
}

func runExport(s *session, format, fromValue, toValue string) error {
	var from, to time.Time
	switch {
	case fromValue != "":
		f, err := parseDate(s, "from", fromValue)
		if err != nil {
			return err
		}
		t, err := parseDate(s, "to", toValue)
		if err != nil {
			return err
		}
		if t.Before(f) {
			return usageError("--to is before --from")
		}
		from, to = timecalc.StartOfDay(f), timecalc.NextDay(t)
	case toValue != "":
		return usageError("--from is required when --to is specified")
	default:
		var err error
		if from, to, err = report.Window(report.RangeWeek, s.now(), s.loc); err != nil {
			return usageError("%v", err)
		}
	}

	entries, err := s.store.ListEntries(s.ctx(), storage.EntryFilter{UserID: s.userID, From: &from, To: &to})
	if err != nil {
		return storageError(err)
	}
	names, err := projectNames(s)
	if err != nil {
		return storageError(err)
	}

	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
	case report.FormatMarkdown:
		printList(s.out, entries, names, s.loc)
	case report.FormatCSV:
		printCSV(s.out, entries, names, s.now(), s.loc)
	default:
		return usageError("unknown format %q (want csv, json or md)", format)
	}
	return nil
}

// printCSV writes one row per entry. Running entries have an empty end and
// their elapsed minutes at now.
func printCSV(w io.Writer, entries []model.TimeEntry, names report.ProjectNames, now time.Time, loc *time.Location) {
	fmt.Fprintln(w, "date,project,task,comment,tags,start,end,duration_minutes,source")
	for _, e := range entries {
		comment := ""
		if e.Comment != nil {
			comment = *e.Comment
		}
		endStr := ""
		if e.End != nil {
			endStr = e.End.In(loc).Format(time.RFC3339)
		}
		var durMin int64
		if iv, err := timecalc.Normalize(e, now, loc); err == nil {
			durMin = iv.DurationSeconds / 60
		}
		project := names[e.ProjectID]
		if project == "" {
			project = e.ProjectID
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%d,%s\n",
			timecalc.DayKeyOf(e.Start, loc),
			report.CSVEscape(project),
			report.CSVEscape(e.Task),
			report.CSVEscape(comment),
			report.CSVEscape(strings.Join(e.Tags, ";")),
			e.Start.In(loc).Format(time.RFC3339),
			endStr,
			durMin,
			e.Source,
		)
	}
}
