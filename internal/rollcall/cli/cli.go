// Package cli implements the rollcall command line client. Most commands
// drive a running daemon through pkg/rollcallsdk; the directory commands
// write to the local database directly.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

var readPasswordFunc = term.ReadPassword // mockable

const defaultAddr = "http://localhost:8080"

// NewRootCmd builds the full command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "rollcall",
		Short:         "Command line client for the rollcall daemon",
		Long:          "rollcall signs in, inspects the device session and runs password resets against a local rollcalld.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	addr := os.Getenv("ROLLCALL_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	root.PersistentFlags().String("addr", addr, "Daemon base URL (env ROLLCALL_ADDR)")
	root.PersistentFlags().StringP("output", "o", "text", "Output format: text | json")

	root.AddCommand(
		NewLoginCmd(),
		NewLogoutCmd(),
		NewSessionCmd(),
		NewProfileCmd(),
		NewRouteCmd(),
		NewOnboardingCmd(),
		NewResetCmd(),
		NewHealthCmd(),
		NewDirectoryCmd(),
	)
	return root
}

func client(cmd *cobra.Command) *rollcallsdk.Client {
	addr, _ := cmd.Flags().GetString("addr")
	return rollcallsdk.NewClient(strings.TrimRight(addr, "/"))
}

func jsonOutput(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("output")
	return format == "json"
}

// render prints v as indented JSON with -o json, otherwise calls text.
func render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out)
	return nil
}

// promptPassword reads a password without echo. With --password-stdin the
// first line of stdin is used instead so scripts can pipe it in.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	if fromStdin, _ := cmd.Flags().GetBool("password-stdin"); fromStdin {
		raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1024))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		line, _, _ := strings.Cut(string(raw), "\n")
		return strings.TrimRight(line, "\r"), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pwd) == 0 {
		return "", errors.New("password cannot be empty")
	}
	return string(pwd), nil
}

func addPasswordStdinFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
}

// Describe turns an SDK error into one line for the terminal.
func Describe(err error) string {
	var apiErr *rollcallsdk.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	msg := apiErr.Code
	if apiErr.Description != "" {
		msg += ": " + apiErr.Description
	}
	for field, reason := range apiErr.Details {
		msg += fmt.Sprintf("\n  %s: %s", field, reason)
	}
	return msg
}
