// Package email sends booking confirmation emails.
package email

import (
	"context"
	"time"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	From    string // empty uses the sender's default address
	Subject string
	HTML    string
}

// Receipt identifies an accepted message.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
