package main

import (
	"github.com/spf13/cobra"

	"github.com/todo-team/todolist/internal/client"
)

var (
	newUserReq client.NewUserRequest
	patchRole  string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all accounts (admin)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		users, err := api.ListUsers(cmd.Context())
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		return printJSON(cmd, users)
	},
}

var addUserCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a verified account (admin)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := api.AddUser(cmd.Context(), newUserReq)
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		return printJSON(cmd, user)
	},
}

var roleCmd = &cobra.Command{
	Use:   "role ID",
	Short: "Change the role of an account (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := api.UpdateUser(cmd.Context(), args[0], client.UserPatch{Role: &patchRole})
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		return printJSON(cmd, user)
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an account (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(cmd, client.Run(func() (string, error) {
			return api.DeleteUser(cmd.Context(), args[0])
		}))
	},
}

func init() {
	f := addUserCmd.Flags()
	f.StringVar(&newUserReq.PersonalID, "personal-id", "", "personal identifier")
	f.StringVar(&newUserReq.Name, "name", "", "display name")
	f.StringVar(&newUserReq.Email, "email", "", "email address")
	f.StringVar(&newUserReq.Password, "password", "", "password")
	f.StringVar(&newUserReq.Role, "role", client.RoleUser, "user or admin")

	roleCmd.Flags().StringVar(&patchRole, "to", client.RoleUser, "user or admin")

	usersCmd.AddCommand(addUserCmd, roleCmd, deleteUserCmd)
	rootCmd.AddCommand(usersCmd)
}
