package events

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys published on the events exchange.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	BookingPaid      = "booking.paid"
	TripCreated      = "trip.created"
	TripUpdated      = "trip.updated"
	TripCancelled    = "trip.cancelled"
	TripStarted      = "trip.started"
	TripCompleted    = "trip.completed"
	TripsExpired     = "trip.expired"
	RatingCreated    = "rating.created"
	RatingModerated  = "rating.moderated"
	UserSuspended    = "user.suspended"
)

type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
	Close() error
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	mu       sync.Mutex
	log      *zap.Logger
}

// Dial connects to the broker, retrying with exponential backoff, and
// declares the durable topic exchange.
func Dial(url, exchange string, attempts int, log *zap.Logger) (Publisher, error) {
	log = log.With(zap.String("component", "events"))

	var (
		conn *amqp.Connection
		err  error
	)
	for i := 1; i <= attempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn("RabbitMQ connect attempt failed", zap.Int("attempt", i), zap.Error(err))
		if i < attempts {
			time.Sleep(time.Second * time.Duration(math.Pow(2, float64(i))))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ after %d attempts: %w", attempts, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newRabbitPublisher(ch, exchange, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn

	log.Info("Connected to RabbitMQ", zap.String("exchange", exchange))
	return p, nil
}

func newRabbitPublisher(ch channel, exchange string, log *zap.Logger) (*rabbitPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &rabbitPublisher{ch: ch, exchange: exchange, log: log}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.OccurredAt,
		Type:         routingKey,
		Body:         body,
	})
	if err != nil {
		p.log.Error("Failed to publish event", zap.Error(err), zap.String("routing_key", routingKey))
		return fmt.Errorf("publish %s event: %w", routingKey, err)
	}

	p.log.Debug("Event published", zap.String("routing_key", routingKey), zap.String("event_id", env.ID))
	return nil
}

func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type nopPublisher struct {
	log *zap.Logger
}

// NewNopPublisher returns a publisher that drops every event. It is used when
// no broker URL is configured.
func NewNopPublisher(log *zap.Logger) Publisher {
	return &nopPublisher{log: log.With(zap.String("component", "events"))}
}

func (p *nopPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.log.Debug("Event dropped, no broker configured", zap.String("routing_key", routingKey))
	return nil
}

func (p *nopPublisher) Close() error { return nil }
