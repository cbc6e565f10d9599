package mail

import (
	"time"

	"gopkg.in/gomail.v2"
)

type LeadApprovedEmailData struct {
	Name          string
	OnboardingURL string
	ExpiresIn     string
}

type LeadRejectedEmailData struct {
	Name   string
	Reason string
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From        string
	FrontendURL string
	// TokenTTL is only used to word the expiry in the approved email.
	TokenTTL time.Duration
	Dialer   Dialer
}
