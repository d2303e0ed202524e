package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage known users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users and their roles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUsersList(sess)
	},
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <user-id> <admin|user>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUsersRole(sess, args[0], model.Role(args[1]))
	},
}

func init() {
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersRoleCmd)
}

func runUsersList(s *session) error {
	users, err := s.store.ListUsers(s.ctx())
	if err != nil {
		return storageError(err)
	}
	if len(users) == 0 {
		fmt.Fprintln(s.out, "No users found.")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROLE\tEMAIL\tNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Role, u.Email, u.DisplayName)
	}
	return tw.Flush()
}

func runUsersRole(s *session, id string, role model.Role) error {
	if !role.Valid() {
		return usageError("unknown role %q (want admin or user)", role)
	}
	err := s.store.SetUserRole(s.ctx(), id, role)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return usageError("unknown user %q", id)
	case err != nil:
		return storageError(err)
	}
	fmt.Fprintf(s.out, "User %s is now %s\n", id, role)
	return nil
}
