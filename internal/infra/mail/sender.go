package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

const (
	subjectLeadApproved = "Welcome! Complete Your Onboarding"
	subjectLeadRejected = "Application Update"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func NewEmailSender(host string, port int, user, password, from, frontendURL string, tokenTTL time.Duration) *EmailSender {
	return &EmailSender{
		From:        from,
		FrontendURL: frontendURL,
		TokenTTL:    tokenTTL,
		Dialer:      gomail.NewDialer(host, port, user, password),
	}
}

// OnboardingURL is the link a lead follows to redeem token.
func (s *EmailSender) OnboardingURL(token string) string {
	return strings.TrimRight(s.FrontendURL, "/") + "/onboard/" + token
}

func (s *EmailSender) RenderLeadApproved(name, token string) (string, error) {
	return render("lead_approved.html", LeadApprovedEmailData{
		Name:          name,
		OnboardingURL: s.OnboardingURL(token),
		ExpiresIn:     humanDuration(s.TokenTTL),
	})
}

func (s *EmailSender) RenderLeadRejected(name, reason string) (string, error) {
	return render("lead_rejected.html", LeadRejectedEmailData{Name: name, Reason: reason})
}

func (s *EmailSender) SendLeadApproved(to, name, token string) error {
	body, err := s.RenderLeadApproved(name, token)
	if err != nil {
		return err
	}
	return s.send(to, subjectLeadApproved, body)
}

func (s *EmailSender) SendLeadRejected(to, name, reason string) error {
	body, err := s.RenderLeadRejected(name, reason)
	if err != nil {
		return err
	}
	return s.send(to, subjectLeadRejected, body)
}

func (s *EmailSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.Dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	return nil
}

func render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return body.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "24 hours"
	case d%time.Hour == 0 && d/time.Hour == 1:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	default:
		return d.String()
	}
}
