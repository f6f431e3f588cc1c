package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eventos/reservas-api/internal/core/domain"
)

const DefaultQueue = "reservation.confirmed"

// ReservationConfirmedEvent is the JSON body published for every booking.
type ReservationConfirmedEvent struct {
	Type        string             `json:"type"`
	Reservation domain.Reservation `json:"reserva"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// channelPublisher is satisfied by *amqp.Channel.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends ReservationConfirmedEvent messages to a durable queue on
// the default exchange. An amqp.Channel is not safe for concurrent
// publishing, so calls are serialised.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channelPublisher
	queue string
	now   func() time.Time
}

// DialPublisher connects to the broker and declares queue (durable).
func DialPublisher(url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare %s: %w", queue, err)
	}

	return &Publisher{conn: conn, ch: ch, queue: queue, now: time.Now}, nil
}

func (p *Publisher) Name() string { return "amqp" }

// Notify publishes a persistent reservation.confirmed message.
func (p *Publisher) Notify(ctx context.Context, r domain.Reservation) error {
	now := p.now().UTC()
	body, err := json.Marshal(ReservationConfirmedEvent{
		Type:        DefaultQueue,
		Reservation: r,
		OccurredAt:  now,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		MessageId:    fmt.Sprintf("reserva-%d", r.ID),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close shuts down the broker connection and its channel.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
