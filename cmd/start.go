package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
)

var (
	startTask    string
	startComment string
	startTags    string
	startAt      string
)

var startCmd = &cobra.Command{
	Use:   "start <project>",
	Short: "Start a new timer, stopping the running one",
	Long: `Start a timer on a project, creating the project on first use. A timer
that is still running is stopped at the same instant.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart(sess, args[0], startOptions{
			task:    startTask,
			comment: startComment,
			tags:    startTags,
			at:      startAt,
		})
	},
}

func init() {
	startCmd.Flags().StringVar(&startTask, "task", "", "Task description")
	startCmd.Flags().StringVar(&startComment, "comment", "", "Optional comment")
	startCmd.Flags().StringVar(&startTags, "tags", "", "Comma-separated tags")
	startCmd.Flags().StringVar(&startAt, "at", "", "Start time (HH:MM today, or YYYY-MM-DDTHH:MM); default now")
}

type startOptions struct {
	task    string
	comment string
	tags    string
	at      string
}

func runStart(s *session, project string, opts startOptions) error {
	at, err := parseAt(s, opts.at)
	if err != nil {
		return err
	}

	p, err := s.store.EnsureProject(s.ctx(), s.userID, project)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			return usageError("%v", err)
		}
		return storageError(err)
	}

	entry := &model.TimeEntry{
		UserID:    s.userID,
		ProjectID: p.ID,
		Task:      opts.task,
		Comment:   optionalString(opts.comment),
		Tags:      parseTags(opts.tags),
		Start:     at,
		Source:    model.SourceTimer,
	}
	stopped, err := s.store.StartTimer(s.ctx(), entry)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			return usageError("%v", err)
		}
		return storageError(err)
	}

	if stopped != nil {
		fmt.Fprintf(s.errOut, "Warning: auto-stopped active timer for project %q after %s\n",
			projectName(s, stopped.ProjectID), formatElapsed(elapsedOf(s, *stopped)))
	}
	fmt.Fprintf(s.out, "Started timer for project %q at %s\n", p.Name, at.In(s.loc).Format("15:04:05"))
	return nil
}
