package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewResetCmd creates the "reset" subcommand with one child per protocol.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Recover a password with a 6-digit code or a reset token",
	}
	cmd.AddCommand(newResetCodeCmd(), newResetTokenCmd())
	return cmd
}

func newResetCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Reset with a 6-digit code sent to the account email",
	}

	request := &cobra.Command{
		Use:   "request <email>",
		Short: "Send a reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, err := client(cmd).RequestResetCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd, issue, func(w io.Writer) {
				fmt.Fprintf(w, "Reset code sent to the %s account, valid until %s.\n",
					issue.Role, issue.ExpiresAt.Local().Format(time.Kitchen))
			})
		},
	}

	verify := &cobra.Command{
		Use:   "verify <email> <code>",
		Short: "Check a reset code without using it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := client(cmd).VerifyResetCode(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return render(cmd, v, func(w io.Writer) {
				fmt.Fprintf(w, "Code is valid for the %s account.\n", v.Role)
			})
		},
	}

	complete := &cobra.Command{
		Use:   "complete <email> <code>",
		Short: "Set a new password with a reset code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := newPassword(cmd)
			if err != nil {
				return err
			}
			if err := client(cmd).CompleteResetCode(cmd.Context(), args[0], args[1], pwd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated.")
			return nil
		},
	}
	addPasswordStdinFlag(complete)

	cmd.AddCommand(request, verify, complete)
	return cmd
}

func newResetTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Reset with an opaque token scoped to one role",
	}
	cmd.PersistentFlags().StringP("role", "r", "", "Role the account belongs to")
	_ = cmd.MarkPersistentFlagRequired("role")

	request := &cobra.Command{
		Use:   "request <email>",
		Short: "Send a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			issue, err := client(cmd).RequestResetToken(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			return render(cmd, issue, func(w io.Writer) {
				fmt.Fprintf(w, "Reset token sent, valid until %s.\n",
					issue.ExpiresAt.Local().Format(time.Kitchen))
			})
		},
	}

	verify := &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a reset token without using it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			v, err := client(cmd).VerifyResetToken(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			return render(cmd, v, func(w io.Writer) {
				fmt.Fprintf(w, "Token is valid for user %s.\n", v.UserID)
			})
		},
	}

	complete := &cobra.Command{
		Use:   "complete <token>",
		Short: "Set a new password with a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			pwd, err := newPassword(cmd)
			if err != nil {
				return err
			}
			if err := client(cmd).CompleteResetToken(cmd.Context(), args[0], role, pwd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated.")
			return nil
		},
	}
	addPasswordStdinFlag(complete)

	cmd.AddCommand(request, verify, complete)
	return cmd
}

// newPassword prompts twice unless the password comes from stdin.
func newPassword(cmd *cobra.Command) (string, error) {
	pwd, err := promptPassword(cmd, "New password: ")
	if err != nil {
		return "", err
	}
	if fromStdin, _ := cmd.Flags().GetBool("password-stdin"); fromStdin {
		return pwd, nil
	}

	again, err := promptPassword(cmd, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if again != pwd {
		return "", errors.New("passwords do not match")
	}
	return pwd, nil
}
