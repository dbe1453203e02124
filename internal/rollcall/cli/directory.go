package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/app"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store/drivers/sqlite"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
)

// NewDirectoryCmd creates the "directory" subcommand. Its children open the
// daemon's database file directly and must run on the same device.
func NewDirectoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Add users to the local directory",
	}
	cmd.PersistentFlags().String("db", envOr("ROLLCALL_DATABASE_FILE", "rollcall.db"), "Directory database file")
	cmd.PersistentFlags().String("pepper", envOr("ROLLCALL_PEPPER_FILE", "pepper"), "Pepper file shared with the daemon")

	add := &cobra.Command{
		Use:   "add <display-name>",
		Short: "Create one user, prompting for the password",
		Args:  cobra.ExactArgs(1),
		RunE:  runDirectoryAdd,
	}
	add.Flags().StringP("role", "r", "", "admin | teacher | student | dept_head")
	add.Flags().String("username", "", "Username")
	add.Flags().String("email", "", "Email address")
	add.Flags().Bool("generate", false, "Generate a password instead of prompting")
	add.Flags().StringToString("attr", nil, "Attribute, key=value")
	_ = add.MarkFlagRequired("role")
	addPasswordStdinFlag(add)

	seed := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create every user in a seed file, skipping existing ones",
		Args:  cobra.ExactArgs(1),
		RunE:  runDirectorySeed,
	}

	cmd.AddCommand(add, seed)
	return cmd
}

func openDirectory(cmd *cobra.Command) (*service.DirectoryService, func(), error) {
	dbPath, _ := cmd.Flags().GetString("db")
	pepperPath, _ := cmd.Flags().GetString("pepper")

	cryptox.SetPepperPath(pepperPath)

	st, err := sqlite.NewStore(sqlite.FileDSN(dbPath))
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return &service.DirectoryService{Store: st}, func() { _ = st.Close() }, nil
}

func runDirectoryAdd(cmd *cobra.Command, args []string) error {
	roleName, _ := cmd.Flags().GetString("role")
	role, ok := domain.ParseRole(roleName)
	if !ok {
		return fmt.Errorf("unknown role %q", roleName)
	}

	seed := domain.SeedUser{Role: role, DisplayName: args[0]}
	seed.Username, _ = cmd.Flags().GetString("username")
	seed.Email, _ = cmd.Flags().GetString("email")
	seed.Attributes, _ = cmd.Flags().GetStringToString("attr")

	if generate, _ := cmd.Flags().GetBool("generate"); !generate {
		pwd, err := promptPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
		seed.Password = pwd
	}

	dir, closeFn, err := openDirectory(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	user, generated, err := dir.AddUser(cmd.Context(), seed)
	if err != nil {
		return err
	}

	created := struct {
		ID                string `json:"id"`
		Role              string `json:"role"`
		DisplayName       string `json:"display_name"`
		GeneratedPassword string `json:"generated_password,omitempty"`
	}{user.ID, user.Role.String(), user.DisplayName, generated}

	return render(cmd, created, func(w io.Writer) {
		fmt.Fprintf(w, "Created %s %s (%s)\n", user.Role, user.DisplayName, user.ID)
		if generated != "" {
			fmt.Fprintf(w, "Generated password: %s\n", generated)
		}
	})
}

func runDirectorySeed(cmd *cobra.Command, args []string) error {
	users, err := app.LoadSeedFile(args[0])
	if err != nil {
		return err
	}

	dir, closeFn, err := openDirectory(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	res, err := dir.Seed(ctx, users)
	if err != nil {
		return err
	}
	// Shown once, on stderr, so redirected output never carries them.
	for _, g := range res.Generated {
		fmt.Fprintf(cmd.ErrOrStderr(), "Generated password for %s %s: %s\n", g.Role, g.Login(), g.Password)
	}
	return render(cmd, res, func(w io.Writer) {
		fmt.Fprintf(w, "%d created, %d skipped\n", res.Created, res.Skipped)
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
