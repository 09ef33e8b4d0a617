// Package notifier publishes notification events to RabbitMQ. Emission is
// fire-and-forget: it never blocks the calling business operation and a
// publish failure is logged, never surfaced to the caller.
package notifier

import (
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/Manaslohe/TechReportProBE/internal/lib/rabbitmq"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Notifier emits notification events for the sender worker.
type Notifier struct {
	channel *amqp.Channel
	log     *slog.Logger
}

// New creates a Notifier on an already set-up channel.
func New(channel *amqp.Channel, log *slog.Logger) *Notifier {
	return &Notifier{
		channel: channel,
		log:     log,
	}
}

// Emit publishes the event asynchronously. The triggering operation has
// already completed; delivery is best effort.
func (n *Notifier) Emit(kind, email string, payload models.NotificationPayload) {
	event := models.NotificationEvent{
		Kind:    kind,
		Email:   email,
		Payload: payload,
	}
	go func() {
		if err := rabbitmq.PublishMessage(n.channel, rabbitmq.Exchange, models.RoutingKey(kind), event); err != nil {
			n.log.Error("failed to publish notification event",
				slog.String("kind", kind), sl.Err(err))
		}
	}()
}
