package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
)

func TestDirectoryAddUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	u, generated, err := f.directory.AddUser(ctx, domain.SeedUser{
		Role: domain.RoleDeptHead, DisplayName: "Mr Keating", Email: " Keating@School.test ",
	})
	require.NoError(t, err)
	require.Len(t, generated, 12)
	require.Equal(t, domain.RoleTeacher, u.Role)
	require.True(t, u.DepartmentHead)
	require.Equal(t, "keating@school.test", u.Email)
	require.True(t, f.canLogin(t, domain.RoleDeptHead, "keating@school.test", generated))

	_, _, err = f.directory.AddUser(ctx, domain.SeedUser{
		Role: domain.RoleTeacher, DisplayName: "Copy", Email: "keating@school.test", Password: "copy-pass",
	})
	require.ErrorIs(t, err, service.ErrUserExists)

	var ve *domain.ValidationError
	_, _, err = f.directory.AddUser(ctx, domain.SeedUser{Role: domain.RoleStudent, DisplayName: "No Login"})
	require.ErrorAs(t, err, &ve)

	_, _, err = f.directory.AddUser(ctx, domain.SeedUser{Role: domain.RoleStudent, DisplayName: "S", Username: "s", Password: "abc"})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "password", ve.Field)
}

func TestDirectorySeedSkipsExisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	seed := []domain.SeedUser{
		{Role: domain.RoleAdmin, DisplayName: "Principal", Username: "principal", Password: "admin-pass"},
		{Role: domain.RoleStudent, DisplayName: "Arnold", Username: "arnold", Email: "arnold@school.test"},
	}

	res, err := f.directory.Seed(ctx, seed)
	require.NoError(t, err)
	require.Equal(t, 2, res.Created)
	require.Zero(t, res.Skipped)
	require.Len(t, res.Generated, 1)
	require.Equal(t, "arnold", res.Generated[0].Login())
	require.True(t, f.canLogin(t, domain.RoleStudent, "arnold", res.Generated[0].Password))

	res, err = f.directory.Seed(ctx, seed)
	require.NoError(t, err)
	require.Equal(t, service.SeedResult{Skipped: 2}, res)

	_, err = f.directory.Seed(ctx, []domain.SeedUser{{Role: domain.Role("janitor"), DisplayName: "J", Username: "j"}})
	require.Error(t, err)
}
