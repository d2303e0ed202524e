package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

var (
	settingsPerDay  string
	settingsPerWeek string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the site-wide work targets",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the work targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSettingsShow(sess)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the work targets (HH:MM)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSettingsSet(sess, settingsPerDay, settingsPerWeek)
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsPerDay, "per-day", "", "Daily target, e.g. 07:24")
	settingsSetCmd.Flags().StringVar(&settingsPerWeek, "per-week", "", "Weekly target, e.g. 37:00")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func printSettings(s *session, st model.SiteSettings) {
	fmt.Fprintf(s.out, "Work hours per day:  %s\n", st.WorkHoursPerDay)
	fmt.Fprintf(s.out, "Work hours per week: %s\n", st.WorkHoursPerWeek)
	fmt.Fprintln(s.out, "Weekend target:      00:00")
	if !st.UpdatedAt.IsZero() {
		by := st.UpdatedBy
		if by == "" {
			by = "unknown"
		}
		fmt.Fprintf(s.out, "Updated %s by %s\n", st.UpdatedAt.In(s.loc).Format("2006-01-02 15:04"), by)
	}
}

func runSettingsShow(s *session) error {
	st, err := s.store.GetSettings(s.ctx())
	if err != nil {
		return storageError(err)
	}
	printSettings(s, st)
	return nil
}

func runSettingsSet(s *session, perDay, perWeek string) error {
	if perDay == "" && perWeek == "" {
		return usageError("nothing to change; pass --per-day and/or --per-week")
	}
	for flag, v := range map[string]string{"per-day": perDay, "per-week": perWeek} {
		if v == "" {
			continue
		}
		if _, err := timecalc.ParseHHMM(v); err != nil {
			return usageError("invalid --%s value %q: %v", flag, v, err)
		}
	}

	st, err := s.store.GetSettings(s.ctx())
	if err != nil {
		return storageError(err)
	}
	if perDay != "" {
		st.WorkHoursPerDay = perDay
	}
	if perWeek != "" {
		st.WorkHoursPerWeek = perWeek
	}
	st.UpdatedBy = s.userID

	if err := s.store.PutSettings(s.ctx(), &st); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			return usageError("%v", err)
		}
		return storageError(err)
	}
	printSettings(s, st)
	return nil
}
