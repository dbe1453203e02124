// Package mail delivers password reset secrets to users.
package mail

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"
)

// Message is a plain-text notification to a single recipient.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
}

// Mailer sends messages. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResetCode builds the message carrying a 6-digit reset code.
func ResetCode(to mail.Address, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your password reset code",
		Text: fmt.Sprintf(
			"Hi %s,\n\nUse the code %s to reset your password. It expires in %d minutes.\n\n"+
				"If you did not ask for this you can ignore this message.\n",
			greeting(to), code, int(ttl.Minutes()),
		),
	}
}

// ResetToken builds the message carrying an opaque reset token.
func ResetToken(to mail.Address, token string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text: fmt.Sprintf(
			"Hi %s,\n\nPaste this token into the app to reset your password:\n\n%s\n\nIt expires in %d minutes.\n",
			greeting(to), token, int(ttl.Minutes()),
		),
	}
}

func greeting(to mail.Address) string {
	if to.Name != "" {
		return to.Name
	}
	return to.Address
}

// Discard drops every message.
type Discard struct{}

func (Discard) Send(context.Context, Message) error { return nil }

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
