package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

var resumeAt string

var resumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume a paused or stopped entry (default: the last one stopped today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return runResume(sess, id, resumeAt)
	},
}

func init() {
	resumeCmd.Flags().StringVar(&resumeAt, "at", "", "Resume time (HH:MM today, or YYYY-MM-DDTHH:MM); default now")
}

// lastStoppedToday returns the closed entry of today that ended last.
func lastStoppedToday(s *session) (*model.TimeEntry, error) {
	from := timecalc.StartOfDay(s.now().In(s.loc))
	entries, err := s.store.ListEntries(s.ctx(), storage.EntryFilter{UserID: s.userID, From: &from})
	if err != nil {
		return nil, err
	}
	var last *model.TimeEntry
	for i := range entries {
		e := &entries[i]
		if e.End == nil {
			continue
		}
		if last == nil || e.End.After(*last.End) {
			last = e
		}
	}
	if last == nil {
		return nil, storage.ErrNotFound
	}
	return last, nil
}

func runResume(s *session, id, atValue string) error {
	at, err := parseAt(s, atValue)
	if err != nil {
		return err
	}

	if id == "" {
		last, err := lastStoppedToday(s)
		if errors.Is(err, storage.ErrNotFound) {
			return usageError("Nothing to resume today; pass an entry id.")
		}
		if err != nil {
			return storageError(err)
		}
		id = last.ID
	}

	e, err := s.store.ResumeTimer(s.ctx(), s.userID, id, at)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return usageError("No entry %s.", id)
	case errors.Is(err, storage.ErrConflict):
		return usageError("Another timer started concurrently; try again.")
	case err != nil:
		return storageError(err)
	}

	fmt.Fprintf(s.out, "Resumed timer for project %q (%s so far)\n",
		projectName(s, e.ProjectID), formatElapsed(elapsedOf(s, *e)))
	return nil
}
