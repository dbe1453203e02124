package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

// NewLoginCmd creates the "login" subcommand.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <identifier>",
		Short: "Sign in with a username or email",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogin,
	}
	cmd.Flags().StringP("role", "r", "", "Role to sign in as: admin | teacher | student | dept_head")
	_ = cmd.MarkFlagRequired("role")
	addPasswordStdinFlag(cmd)
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	role, _ := cmd.Flags().GetString("role")

	pwd, err := promptPassword(cmd, "Password: ")
	if err != nil {
		return err
	}

	sess, err := client(cmd).Login(cmd.Context(), rollcallsdk.LoginRequest{
		Role:       role,
		Identifier: args[0],
		Password:   pwd,
	})
	if err != nil {
		return err
	}
	return render(cmd, sess, func(w io.Writer) { printSession(w, sess) })
}

// NewLogoutCmd creates the "logout" subcommand.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the device session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := client(cmd).Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

// NewSessionCmd creates the "session" subcommand.
func NewSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the active device session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := client(cmd).Session(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, sess, func(w io.Writer) { printSession(w, sess) })
		},
	}
}

// NewProfileCmd creates the "profile" subcommand.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE:  runProfile,
	}
	cmd.Flags().String("display-name", "", "New display name")
	cmd.Flags().String("email", "", "New email address")
	cmd.Flags().StringToString("attr", nil, "Attribute to set, key=value (empty value deletes)")
	return cmd
}

func runProfile(cmd *cobra.Command, _ []string) error {
	var req rollcallsdk.ProfileUpdateRequest
	if cmd.Flags().Changed("display-name") {
		v, _ := cmd.Flags().GetString("display-name")
		req.DisplayName = &v
	}
	if cmd.Flags().Changed("email") {
		v, _ := cmd.Flags().GetString("email")
		req.Email = &v
	}
	req.Attributes, _ = cmd.Flags().GetStringToString("attr")

	sess, err := client(cmd).UpdateProfile(cmd.Context(), req)
	if err != nil {
		return err
	}
	return render(cmd, sess, func(w io.Writer) { printSession(w, sess) })
}

func printSession(w io.Writer, s *rollcallsdk.SessionResponse) {
	fmt.Fprintf(w, "Signed in as %s (%s)\n", s.User.DisplayName, s.Role)
	fmt.Fprintf(w, "  user id:    %s\n", s.UserID)
	if s.User.Username != "" {
		fmt.Fprintf(w, "  username:   %s\n", s.User.Username)
	}
	if s.User.Email != "" {
		fmt.Fprintf(w, "  email:      %s\n", s.User.Email)
	}
	fmt.Fprintf(w, "  issued at:  %s\n", s.IssuedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  expires at: %s\n", s.ExpiresAt.Local().Format(time.DateTime))
	if len(s.User.Attributes) > 0 {
		parts := make([]string, 0, len(s.User.Attributes))
		for k, v := range s.User.Attributes {
			parts = append(parts, k+"="+v)
		}
		fmt.Fprintf(w, "  attributes: %s\n", strings.Join(parts, ", "))
	}
}
