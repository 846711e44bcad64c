package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LogSender records emails in the log instead of sending them.  It is used
// when no Resend API key is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) (Receipt, error) {
	slog.Info("email_not_sent", "reason", "no provider configured", "to", msg.To, "subject", msg.Subject)
	return Receipt{MessageID: fmt.Sprintf("log-%d", time.Now().UnixNano()), SentAt: time.Now()}, nil
}

// New picks the Resend sender when apiKey is set and LogSender otherwise.
func New(apiKey, from string) Sender {
	if apiKey == "" {
		return LogSender{}
	}
	return NewResendSender(apiKey, from)
}
