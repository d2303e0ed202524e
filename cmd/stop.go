package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/storage"
)

var (
	stopComment string
	stopAt      string
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the currently running timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStop(sess, stopComment, stopAt)
	},
}

func init() {
	stopCmd.Flags().StringVar(&stopComment, "comment", "", "Append a comment to the entry")
	stopCmd.Flags().StringVar(&stopAt, "at", "", "Stop time (HH:MM today, or YYYY-MM-DDTHH:MM); default now")
}

func runStop(s *session, comment, atValue string) error {
	at, err := parseAt(s, atValue)
	if err != nil {
		return err
	}

	e, err := s.store.StopTimer(s.ctx(), s.userID, at, optionalString(comment))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return usageError("No active timer to stop.")
	case errors.Is(err, storage.ErrInvalidInput):
		return usageError("%v", err)
	case err != nil:
		return storageError(err)
	}

	fmt.Fprintf(s.out, "Stopped timer for project %q. Elapsed: %s\n",
		projectName(s, e.ProjectID), formatElapsed(elapsedOf(s, *e)))
	return nil
}

func formatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
