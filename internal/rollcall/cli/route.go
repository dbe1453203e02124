package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

// NewRouteCmd creates the "route" subcommand.
func NewRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route",
		Short: "Show which view the app opens into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			route, err := client(cmd).Route(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, route, func(w io.Writer) { printRoute(w, route) })
		},
	}
}

func printRoute(w io.Writer, r *rollcallsdk.RouteResponse) {
	switch r.View {
	case rollcallsdk.ViewRoleDashboard:
		fmt.Fprintf(w, "%s dashboard\n", r.Role)
	case rollcallsdk.ViewRoleSelection:
		if r.LastRole != "" {
			fmt.Fprintf(w, "role selection (last role: %s)\n", r.LastRole)
			return
		}
		fmt.Fprintln(w, "role selection")
	default:
		fmt.Fprintln(w, r.View)
	}
}

// NewOnboardingCmd creates the "onboarding" subcommand.
func NewOnboardingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Manage the onboarding-seen flag",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "complete",
			Short: "Mark onboarding as seen",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := client(cmd).CompleteOnboarding(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Onboarding complete.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Show onboarding again on next start",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := client(cmd).ResetOnboarding(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Onboarding reset.")
				return nil
			},
		},
	)
	return cmd
}

// NewHealthCmd creates the "health" subcommand.
func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := client(cmd).GetReadiness(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, health, func(w io.Writer) {
				fmt.Fprintf(w, "%s (version %s, up %s)\n", health.Status, health.Version, health.Uptime)
				if health.Checks != nil {
					fmt.Fprintf(w, "  database:    %s\n", health.Checks.Database)
					fmt.Fprintf(w, "  credentials: %s\n", health.Checks.Credentials)
				}
			})
		},
	}
}
