package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditQueue is the durable queue audit events are routed to.
const AuditQueue = "accounts.audit"

// dialTimeout caps the TCP dial and AMQP handshake when the caller's
// context carries no earlier deadline.
const dialTimeout = 5 * time.Second

// Publisher sends audit events to RabbitMQ.  Each call opens its own
// connection; writes are rare enough that pooling buys nothing.
type Publisher struct {
	url  string
	dial func(url string, timeout time.Duration) (*amqp.Connection, error)
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dial: dialWithTimeout}
}

// dialWithTimeout is amqp.Dial with the connection timeout replaced.
func dialWithTimeout(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// timeoutFor returns how long a dial may take under ctx.
func timeoutFor(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			// a zero timeout would mean no timeout at all
			return time.Millisecond
		}
		if left < dialTimeout {
			return left
		}
	}
	return dialTimeout
}

// Publish delivers ev to AuditQueue as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev AuditEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	conn, err := p.dial(p.url, timeoutFor(ctx))
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// idempotent; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Action,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", AuditQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
