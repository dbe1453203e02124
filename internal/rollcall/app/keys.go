package app

import (
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/credstore/bbolt"
	rollmail "github.com/aussiebroadwan/rollcall/internal/rollcall/mail"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/session"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
)

// deviceKeySize is the length in bytes of the secret both session keys are
// derived from.
const deviceKeySize = 32

// InitSessions opens the credential store and builds the session manager.
//
// The device key lives next to the credential store and is created on first
// start. Losing it invalidates the persisted session, which is then treated
// as absent on the next load.
func InitSessions(cfg Config, c session.Config, logger *slog.Logger) (*bbolt.Store, *session.Manager, error) {
	key, err := cryptox.LoadOrCreateSecret(cfg.DeviceKeyFile, deviceKeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load device key: %w", err)
	}
	if len(key) < deviceKeySize {
		return nil, nil, fmt.Errorf("device key %s is %d bytes, want %d", cfg.DeviceKeyFile, len(key), deviceKeySize)
	}

	creds, err := bbolt.Open(cfg.CredentialsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	sessions, err := session.NewManager(creds, key, c)
	if err != nil {
		_ = creds.Close()
		return nil, nil, err
	}

	logger.Info("credential store opened",
		"path", cfg.CredentialsFile,
		"session_max_age", sessions.MaxAge().String(),
	)
	return creds, sessions, nil
}

// InitMailer picks the delivery backend for reset secrets.
//
// Supported backends: console (log the message), sendgrid, none. Outside dev
// the console backend omits message bodies.
func InitMailer(cfg Config, logger *slog.Logger) (rollmail.Mailer, error) {
	from, err := mail.ParseAddress(cfg.MailFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLCALL_MAIL_FROM %q: %w", cfg.MailFrom, err)
	}

	switch cfg.MailBackend {
	case "console", "":
		return rollmail.Console{From: *from, Logger: logger, Redact: cfg.Env != "dev"}, nil
	case "sendgrid":
		sg, err := rollmail.NewSendGrid(cfg.SendGridAPIKey, "", "rollcall", *from)
		if err != nil {
			return nil, err
		}
		logger.Info("sendgrid mail delivery enabled", "from", from.String())
		return sg, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q (console, sendgrid, none)", cfg.MailBackend)
	}
}
