package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/todo-team/todolist/internal/client"
)

var signUpReq client.SignUpRequest

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register an account; an OTP is mailed to the address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		signUpReq.ConfirmPassword = signUpConfirm
		return report(cmd, client.Run(func() (string, error) {
			return api.SignUp(cmd.Context(), signUpReq)
		}))
	},
}

var signUpConfirm string

var verifyCmd = &cobra.Command{
	Use:   "verify EMAIL OTP",
	Short: "Confirm an email address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(cmd, client.Run(func() (string, error) {
			return api.VerifyOTP(cmd.Context(), args[0], args[1])
		}))
	},
}

var resendCmd = &cobra.Command{
	Use:   "resend EMAIL",
	Short: "Mail a fresh OTP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(cmd, client.Run(func() (string, error) {
			return api.ResendOTP(cmd.Context(), args[0])
		}))
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin EMAIL PASSWORD",
	Short: "Sign in and store the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := api.SignIn(cmd.Context(), args[0], args[1])
		if email, ok := client.NeedsVerification(err); ok {
			return fmt.Errorf("email not verified; run: todoctl verify %s <otp>", email)
		}
		if client.RegistrationExpired(err) {
			return fmt.Errorf("registration expired; run todoctl signup again")
		}
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", snap.User.Email, snap.User.Role)
		return nil
	},
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return report(cmd, client.Run(func() (string, error) {
			return "signed out", api.SignOut()
		}))
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh cookie for a new access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return report(cmd, client.Run(func() (string, error) {
			_, err := api.Refresh(cmd.Context())
			return "token refreshed", err
		}))
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := api.UserInfo(cmd.Context())
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		return printJSON(cmd, user)
	},
}

var canCmd = &cobra.Command{
	Use:   "can ROUTE",
	Short: "Check whether the session may open a view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decision := client.NewGuard(api.Session(), client.DefaultRoutes()).Check(args[0])
		if decision.Allowed {
			fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "redirect %s\n", decision.Redirect)
		return nil
	},
}

func init() {
	f := signUpCmd.Flags()
	f.StringVar(&signUpReq.PersonalID, "personal-id", "", "personal identifier")
	f.StringVar(&signUpReq.Name, "name", "", "display name")
	f.StringVar(&signUpReq.Email, "email", "", "email address")
	f.StringVar(&signUpReq.Password, "password", "", "password")
	f.StringVar(&signUpConfirm, "confirm", "", "password confirmation")
	f.StringVar(&signUpReq.Address, "address", "", "postal address")
	f.StringVar(&signUpReq.PhoneNumber, "phone", "", "phone number")

	rootCmd.AddCommand(signUpCmd, verifyCmd, resendCmd, signInCmd, signOutCmd, refreshCmd, whoamiCmd, canCmd)
}
