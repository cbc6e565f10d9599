package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

var errUnknownKind = errors.New("unknown notification kind")

// LeadMailer delivers the emails behind lead notifications.
type LeadMailer interface {
	SendLeadApproved(to, name, token string) error
	SendLeadRejected(to, name, reason string) error
}

// Consumer is satisfied by *amqp.Channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Mailer  LeadMailer
	// OnError, when set, is called for every message sent to the DLQ.
	OnError func(err error)
}

func NewWorker(ch Consumer, mailer LeadMailer, onError func(error)) *Worker {
	return &Worker{Channel: ch, Mailer: mailer, OnError: onError}
}

// Start consumes queueName with manual acks until ctx is done or the
// delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	log.Info().Str("queue", queueName).Msg("notification worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.HandleDelivery(d)
		}
	}
}

// HandleDelivery acks a delivered notification or nacks it without requeue,
// which routes it to the DLQ.
func (w *Worker) HandleDelivery(d amqp.Delivery) {
	var n LeadNotification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		log.Error().Err(err).Str("message_id", d.MessageId).Msg("malformed notification")
		w.reject(d, err)
		return
	}

	if err := w.process(n); err != nil {
		log.Error().Err(err).Str("lead_id", n.LeadID).Str("kind", string(n.Kind)).Msg("notification failed")
		w.reject(d, err)
		return
	}

	log.Info().Str("lead_id", n.LeadID).Str("kind", string(n.Kind)).Msg("notification delivered")
	if err := d.Ack(false); err != nil {
		log.Error().Err(err).Msg("ack failed")
	}
}

func (w *Worker) process(n LeadNotification) error {
	switch n.Kind {
	case KindLeadApproved:
		return w.Mailer.SendLeadApproved(n.Email, n.FullName, n.Token)
	case KindLeadRejected:
		return w.Mailer.SendLeadRejected(n.Email, n.FullName, n.Reason)
	default:
		return fmt.Errorf("%w: %q", errUnknownKind, n.Kind)
	}
}

func (w *Worker) reject(d amqp.Delivery, cause error) {
	if w.OnError != nil {
		w.OnError(cause)
	}
	if err := d.Nack(false, false); err != nil {
		log.Error().Err(err).Msg("nack failed")
	}
}
