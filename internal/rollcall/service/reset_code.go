package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/clock"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/mail"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/validate"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/idx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// CodeIssue is the outcome of a code request. Code is returned to the caller
// as well as mailed, there is no other way to retrieve it later.
type CodeIssue struct {
	RequestID string
	Code      string
	Role      domain.Role
	ExpiresAt time.Time
}

// CodeResetService runs the role-agnostic, email keyed reset protocol. Its
// state lives in the reset request log only.
type CodeResetService struct {
	Store   store.Store
	Clock   clock.Clock
	Mailer  mail.Mailer // nil skips delivery
	TTL     time.Duration
	Timeout time.Duration

	// NewCode overrides the 6-digit generator in tests.
	NewCode func() (string, error)
}

func (s *CodeResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return domain.DefaultResetTTL
	}
	return s.TTL
}

// RequestByEmail finds the first record using email (admins, then teachers,
// then students) and opens a reset request for it.
func (s *CodeResetService) RequestByEmail(ctx context.Context, email string) (CodeIssue, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	l := slogx.FromContext(ctx)

	// 1. Validate input
	email = normalizeEmail(email)
	if err := validate.Var("email", email, "required,email,max=254"); err != nil {
		return CodeIssue{}, err
	}

	// 2. Scan collections in order
	user, role, err := findByEmail(ctx, s.Store.Users(), domain.EmailScanOrder, email)
	if err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			l.Info("reset code requested for unknown email")
		}
		return CodeIssue{}, err
	}

	// 3. Generate the code
	gen := s.NewCode
	if gen == nil {
		gen = generateResetCode
	}
	code, err := gen()
	if err != nil {
		return CodeIssue{}, fmt.Errorf("generate reset code: %w", err)
	}

	// 4. Persist the request
	now, err := readClock(ctx, s.Clock)
	if err != nil {
		return CodeIssue{}, err
	}
	req := domain.ResetRequest{
		ID:        idx.NewAt(now).String(),
		UserID:    user.ID,
		Role:      role,
		Email:     email,
		CodeHash:  cryptox.FingerprintSecret(code),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := s.Store.ResetRequests().CreateResetRequest(ctx, req); err != nil {
		l.Error("failed to store reset request", slog.Any("error", err))
		return CodeIssue{}, domain.Unavailable(err)
	}

	// 5. Deliver
	if s.Mailer != nil {
		to := netmail.Address{Name: user.DisplayName, Address: email}
		if err := s.Mailer.Send(ctx, mail.ResetCode(to, code, s.ttl())); err != nil {
			l.Warn("failed to mail reset code", slog.String("request_id", req.ID), slog.Any("error", err))
		}
	}

	l.Info("reset code issued",
		slog.String("request_id", req.ID),
		slog.String("role", role.String()),
		slog.String("user_id", user.ID),
	)

	return CodeIssue{RequestID: req.ID, Code: code, Role: role, ExpiresAt: req.ExpiresAt}, nil
}

// VerifyCode checks code against the newest open request for email. A code
// that was already used is reported as ErrCodeInvalid.
func (s *CodeResetService) VerifyCode(ctx context.Context, email, code string) (domain.Verification, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	now, err := readClock(ctx, s.Clock)
	if err != nil {
		return domain.Verification{}, err
	}

	req, _, err := verifyCode(ctx, s.Store, normalizeEmail(email), code, now)
	if err != nil {
		return domain.Verification{}, err
	}
	return domain.Verification{ResetID: req.ID, UserID: req.UserID, Role: req.Role}, nil
}

// CompleteWithCode re-verifies code, sets the new password and marks the
// request used. The password is validated before anything is written.
func (s *CodeResetService) CompleteWithCode(ctx context.Context, email, code, newPassword string) error {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	l := slogx.FromContext(ctx)

	// 1. Validate the new password
	if err := validate.Password("new_password", newPassword); err != nil {
		return err
	}

	// 2. Hash and read the clock outside the transaction
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now, err := readClock(ctx, s.Clock)
	if err != nil {
		return err
	}
	email = normalizeEmail(email)

	// 3. Re-verify, update, mark used
	var req domain.ResetRequest
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var sawUsed bool
		var err error
		req, sawUsed, err = verifyCode(ctx, tx, email, code, now)
		if errors.Is(err, domain.ErrCodeInvalid) && sawUsed {
			return domain.ErrAlreadyUsed
		}
		if err != nil {
			return err
		}

		if err := tx.Users().UpdatePasswordHash(ctx, req.Role, req.UserID, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrCodeInvalid
			}
			return err
		}
		if err := tx.ResetRequests().MarkResetRequestUsed(ctx, req.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrAlreadyUsed
			}
			return err
		}
		return nil
	})
	if err != nil {
		err = storeErr(err)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			l.Error("failed to complete code reset", slog.Any("error", err))
		}
		return err
	}

	l.Info("password reset with code",
		slog.String("request_id", req.ID),
		slog.String("role", req.Role.String()),
		slog.String("user_id", req.UserID),
	)
	return nil
}

// verifyCode returns the newest unused, unexpired request matching code.
// sawUsed reports whether a used request matched when nothing else did.
func verifyCode(ctx context.Context, st store.Store, email, code string, now time.Time) (domain.ResetRequest, bool, error) {
	if validate.Var("code", code, "otp6") != nil || email == "" {
		return domain.ResetRequest{}, false, domain.ErrCodeInvalid
	}

	list, err := st.ResetRequests().ListResetRequestsByEmailAndCode(ctx, email, cryptox.FingerprintSecret(code))
	if err != nil {
		return domain.ResetRequest{}, false, domain.Unavailable(err)
	}

	var sawUsed, sawExpired bool
	for _, req := range list {
		switch {
		case req.Used:
			sawUsed = true
		case req.Expired(now):
			sawExpired = true
		default:
			return req, false, nil
		}
	}

	if sawExpired {
		return domain.ResetRequest{}, sawUsed, domain.ErrCodeExpired
	}
	return domain.ResetRequest{}, sawUsed, domain.ErrCodeInvalid
}

// generateResetCode derives a 6-digit HOTP value from a fresh random secret
// and counter. Leading zeros are kept.
func generateResetCode() (string, error) {
	var buf [28]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:20])
	counter := binary.BigEndian.Uint64(buf[20:])

	return hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
