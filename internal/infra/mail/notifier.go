package mail

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

// Notifier sends lead review emails directly, in the background. It is used
// when no message broker is configured.
type Notifier struct {
	Sender *EmailSender
	// OnError, when set, is called for every failed delivery.
	OnError func(err error)
	// Sync sends inline instead of in a goroutine.
	Sync bool
}

func NewNotifier(sender *EmailSender, onError func(error)) *Notifier {
	return &Notifier{Sender: sender, OnError: onError}
}

func (n *Notifier) NotifyLeadApproved(_ context.Context, lead *entity.Lead, token string) error {
	to, name, leadID := lead.Email, lead.FullName, lead.ID
	return n.dispatch(leadID, "lead_approved", func() error {
		return n.Sender.SendLeadApproved(to, name, token)
	})
}

func (n *Notifier) NotifyLeadRejected(_ context.Context, lead *entity.Lead) error {
	to, name, leadID := lead.Email, lead.FullName, lead.ID
	reason := ""
	if lead.RejectionReason != nil {
		reason = *lead.RejectionReason
	}
	return n.dispatch(leadID, "lead_rejected", func() error {
		return n.Sender.SendLeadRejected(to, name, reason)
	})
}

func (n *Notifier) dispatch(leadID, kind string, send func() error) error {
	run := func() error {
		if err := send(); err != nil {
			log.Error().Err(err).Str("lead_id", leadID).Str("email", kind).Msg("failed to send email")
			if n.OnError != nil {
				n.OnError(err)
			}
			return err
		}
		log.Info().Str("lead_id", leadID).Str("email", kind).Msg("email sent")
		return nil
	}

	if n.Sync {
		return run()
	}
	go run()
	return nil
}
