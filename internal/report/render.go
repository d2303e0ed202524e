package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Tiliavir/worktime/internal/timecalc"
)

// Output formats.
const (
	FormatMarkdown = "md"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// ProjectNames maps project IDs to display names. Unknown IDs print as is.
type ProjectNames map[string]string

func (n ProjectNames) name(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

// Render writes s to w in the given format.
func Render(w io.Writer, s Summary, format string, names ProjectNames) error {
	switch format {
	case FormatCSV:
		return renderCSV(w, s, names)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatMarkdown, "":
		return renderMarkdown(w, s, names)
	default:
		return fmt.Errorf("unknown format %q (want md, csv or json)", format)
	}
}

func renderMarkdown(w io.Writer, s Summary, names ProjectNames) error {
	var b strings.Builder

	switch {
	case s.Week != "" && s.From != s.To:
		fmt.Fprintf(&b, "Week %s (%s to %s)\n", s.Week, s.From, s.To)
	case s.From != "":
		fmt.Fprintf(&b, "Day %s\n", s.From)
	default:
		b.WriteString("All entries\n")
	}
	b.WriteString("--------------------------------\n")
	for _, g := range s.Groups {
		label := names.name(g.ProjectID)
		if g.Task != timecalc.NoTaskKey {
			label += " / " + g.Task
		}
		running := ""
		if g.IsRunning {
			running = " (running)"
		}
		fmt.Fprintf(&b, "%-30s%s%s\n", label, timecalc.FormatDuration(g.TotalDurationSeconds), running)
	}
	b.WriteString("--------------------------------\n")
	fmt.Fprintf(&b, "%-30s%s\n", "Total", timecalc.FormatDuration(s.TotalDurationSeconds))
	fmt.Fprintf(&b, "%-30s%s h of %s h (%s)\n", "Target",
		timecalc.FormatHours(s.Progress.WorkedHours), timecalc.FormatHours(s.Progress.TargetHours), s.Progress.Status)

	if len(s.Days) > 1 {
		b.WriteString("\n")
		for _, d := range s.Days {
			flags := ""
			if d.LongDay {
				flags += " long"
			}
			if d.OverlapPairs > 0 {
				flags += fmt.Sprintf(" overlaps:%d", d.OverlapPairs)
			}
			fmt.Fprintf(&b, "%s %-9s %6s / %5s h  %-8s%s\n", d.Day, d.Weekday,
				timecalc.FormatHours(d.Hours), timecalc.FormatHours(d.Progress.TargetHours), d.Progress.Status, flags)
		}
	} else if len(s.Days) == 1 && s.Days[0].OverlapPairs > 0 {
		fmt.Fprintf(&b, "\nOverlapping entries: %s\n", strings.Join(s.Days[0].OverlapIDs, ", "))
	}

	for _, ld := range s.LongDays {
		fmt.Fprintf(&b, "Long day: %s (%s h > %s h)\n", ld.DayKey, timecalc.FormatHours(ld.Hours), timecalc.FormatHours(s.ThresholdHours))
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped %d malformed entries\n", len(s.Skipped))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderCSV(w io.Writer, s Summary, names ProjectNames) error {
	var b strings.Builder
	b.WriteString("project,task,duration_minutes,entries,running\n")
	for _, g := range s.Groups {
		fmt.Fprintf(&b, "%s,%s,%d,%d,%t\n",
			CSVEscape(names.name(g.ProjectID)), CSVEscape(g.Task), g.TotalDurationSeconds/60, g.EntryCount, g.IsRunning)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// CSVEscape wraps a field in quotes if it contains a comma, quote, or newline.
func CSVEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
