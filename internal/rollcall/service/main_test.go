package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/clock"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/credstore/bbolt"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/mail"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/session"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store/drivers/sqlite"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "rollcall-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

var epoch = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store     *sqlite.Store
	clock     *clock.Manual
	sessions  *session.Manager
	mailer    *mail.Recorder
	auth      *service.AuthService
	codes     *service.CodeResetService
	tokens    *service.TokenResetService
	startup   *service.StartupService
	profile   *service.ProfileService
	directory *service.DirectoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	creds, err := bbolt.Open(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = creds.Close() })

	clk := clock.NewManual(epoch)
	sessions, err := session.NewManager(creds, []byte("device-key-for-service-tests-0123456789"), session.Config{Clock: clk})
	require.NoError(t, err)

	boot, err := service.NewBootstrapAuthenticator(true, "root", "letmein-bootstrap")
	require.NoError(t, err)

	rec := &mail.Recorder{}
	return &fixture{
		store:     st,
		clock:     clk,
		sessions:  sessions,
		mailer:    rec,
		auth:      &service.AuthService{Store: st, Sessions: sessions, Bootstrap: boot, Clock: clk},
		codes:     &service.CodeResetService{Store: st, Clock: clk, Mailer: rec},
		tokens:    &service.TokenResetService{Store: st, Clock: clk, Mailer: rec},
		startup:   &service.StartupService{Sessions: sessions},
		profile:   &service.ProfileService{Store: st, Sessions: sessions},
		directory: &service.DirectoryService{Store: st},
	}
}

// addUser seeds a record and returns it.
func (f *fixture) addUser(t *testing.T, seed domain.SeedUser) domain.User {
	t.Helper()
	if seed.DisplayName == "" {
		seed.DisplayName = "Test User"
	}
	u, _, err := f.directory.AddUser(context.Background(), seed)
	require.NoError(t, err)
	return u
}

// canLogin reports whether password currently opens a session for u.
func (f *fixture) canLogin(t *testing.T, role domain.Role, identifier, password string) bool {
	t.Helper()
	_, err := f.auth.Login(context.Background(), role, identifier, password)
	if err != nil {
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		return false
	}
	return true
}
