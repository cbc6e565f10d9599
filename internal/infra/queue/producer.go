package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/visa-crm/internal/entity"
)

type NotificationKind string

const (
	KindLeadApproved NotificationKind = "lead.approved"
	KindLeadRejected NotificationKind = "lead.rejected"
)

type LeadNotification struct {
	Kind     NotificationKind `json:"kind"`
	LeadID   string           `json:"lead_id"`
	Email    string           `json:"email"`
	FullName string           `json:"full_name"`
	Token    string           `json:"token,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQProducer publishes lead notifications for the mail worker.
type RabbitMQProducer struct {
	Ch  Publisher
	Now func() time.Time
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch, Now: time.Now}
}

// NotifyLeadApproved publishes a transient message: the body carries the
// plaintext onboarding token and must not be written to broker disk.
func (p *RabbitMQProducer) NotifyLeadApproved(ctx context.Context, lead *entity.Lead, token string) error {
	return p.publish(ctx, LeadNotification{
		Kind:     KindLeadApproved,
		LeadID:   lead.ID,
		Email:    lead.Email,
		FullName: lead.FullName,
		Token:    token,
	}, amqp.Transient)
}

func (p *RabbitMQProducer) NotifyLeadRejected(ctx context.Context, lead *entity.Lead) error {
	n := LeadNotification{
		Kind:     KindLeadRejected,
		LeadID:   lead.ID,
		Email:    lead.Email,
		FullName: lead.FullName,
	}
	if lead.RejectionReason != nil {
		n.Reason = *lead.RejectionReason
	}
	return p.publish(ctx, n, amqp.Persistent)
}

func (p *RabbitMQProducer) publish(ctx context.Context, n LeadNotification, mode uint8) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: mode,
			MessageId:    uuid.New().String(),
			Timestamp:    p.Now().UTC(),
			Type:         string(n.Kind),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}
	return nil
}
