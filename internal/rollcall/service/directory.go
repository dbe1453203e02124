package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/validate"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/idx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// ErrUserExists is returned when a username or email is already taken in the
// target collection.
var ErrUserExists = errors.New("user already exists")

// DirectoryService creates directory records. Record CRUD beyond seeding
// belongs to the wider application.
type DirectoryService struct {
	Store   store.Store
	Timeout time.Duration
}

type seedInput struct {
	Role        string `json:"role" validate:"required,role"`
	DisplayName string `json:"display_name" validate:"notblank,max=100"`
	Username    string `json:"username" validate:"omitempty,max=64"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Password    string `json:"password" validate:"omitempty,min=6,max=256"`
}

// AddUser creates one record. When seed.Password is empty a random password
// is generated and returned.
func (s *DirectoryService) AddUser(ctx context.Context, seed domain.SeedUser) (domain.User, string, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	// 1. Validate
	seed.Username = strings.TrimSpace(seed.Username)
	seed.Email = normalizeEmail(seed.Email)
	in := seedInput{
		Role:        seed.Role.String(),
		DisplayName: seed.DisplayName,
		Username:    seed.Username,
		Email:       seed.Email,
		Password:    seed.Password,
	}
	if err := validate.Struct(in); err != nil {
		return domain.User{}, "", err
	}
	if seed.Username == "" && seed.Email == "" {
		return domain.User{}, "", domain.NewValidationError("username", "username or email is required")
	}

	// 2. Password
	password := seed.Password
	generated := ""
	if password == "" {
		var err error
		if password, err = cryptox.GeneratePassword(); err != nil {
			return domain.User{}, "", err
		}
		generated = password
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	// 3. Insert
	u := domain.User{
		ID:             idx.New().String(),
		Role:           seed.Role,
		DisplayName:    strings.TrimSpace(seed.DisplayName),
		Username:       seed.Username,
		Email:          seed.Email,
		PasswordHash:   hash,
		DepartmentHead: seed.Role == domain.RoleDeptHead || (seed.DepartmentHead && seed.Role == domain.RoleTeacher),
		Attributes:     seed.Attributes,
	}
	if seed.Role == domain.RoleDeptHead {
		u.Role = domain.RoleTeacher
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, "", ErrUserExists
		}
		return domain.User{}, "", domain.Unavailable(err)
	}

	slogx.FromContext(ctx).Info("directory user created",
		slog.String("user_id", u.ID),
		slog.String("role", seed.Role.String()),
	)
	return u, generated, nil
}

// SeedResult summarises a Seed call.
type SeedResult struct {
	Created int
	Skipped int

	// Generated holds passwords minted for entries that had none. They are
	// never logged, the caller decides where to show them.
	Generated []GeneratedPassword `json:"-"`
}

// GeneratedPassword pairs a seeded record with its minted password.
type GeneratedPassword struct {
	Role     domain.Role
	Username string
	Email    string
	Password string
}

// Login returns the identifier the user signs in with.
func (g GeneratedPassword) Login() string {
	if g.Username != "" {
		return g.Username
	}
	return g.Email
}

// Seed creates every user that does not exist yet. Existing records are
// left untouched.
func (s *DirectoryService) Seed(ctx context.Context, users []domain.SeedUser) (SeedResult, error) {
	var res SeedResult
	l := slogx.FromContext(ctx)

	for i, seed := range users {
		u, generated, err := s.AddUser(ctx, seed)
		switch {
		case errors.Is(err, ErrUserExists):
			res.Skipped++
			continue
		case err != nil:
			return res, fmt.Errorf("seed user %d (%s): %w", i, seed.DisplayName, err)
		}

		res.Created++
		if generated != "" {
			res.Generated = append(res.Generated, GeneratedPassword{
				Role: u.Role, Username: u.Username, Email: u.Email, Password: generated,
			})
			l.Warn("seeded user with generated password",
				slog.String("role", u.Role.String()),
				slog.String("user_id", u.ID),
			)
		}
	}
	return res, nil
}
