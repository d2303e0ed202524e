package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/storage"
)

var pauseAt string

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running timer so it can be resumed later",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPause(sess, pauseAt)
	},
}

func init() {
	pauseCmd.Flags().StringVar(&pauseAt, "at", "", "Pause time (HH:MM today, or YYYY-MM-DDTHH:MM); default now")
}

func runPause(s *session, atValue string) error {
	at, err := parseAt(s, atValue)
	if err != nil {
		return err
	}
	e, err := s.store.PauseTimer(s.ctx(), s.userID, at)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return usageError("No active timer to pause.")
	case err != nil:
		return storageError(err)
	}

	fmt.Fprintf(s.out, "Paused timer for project %q after %s. Resume with: worktime resume %s\n",
		projectName(s, e.ProjectID), formatElapsed(elapsedOf(s, *e)), e.ID)
	return nil
}
