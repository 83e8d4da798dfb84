// Package email delivers composed messages through external mail providers
// and renders the message templates.
package email

import (
	"context"
	"errors"
)

// ErrAuthentication means the provider rejected its credentials. Providers
// holding cached credentials drop them so the next call re-authenticates.
var ErrAuthentication = errors.New("email provider rejected credentials")

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string // e.g. "quote-Q-202501-0001.pdf"
	MIMEType string // e.g. "application/pdf"
}

// Message is a fully composed email.
type Message struct {
	To          string
	CC          []string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

// Provider sends a message through one delivery channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// CredentialInvalidator is implemented by providers that cache credentials.
type CredentialInvalidator interface {
	InvalidateCredentials()
}

// From identifies the sender.
type From struct {
	Name    string
	Address string
}
