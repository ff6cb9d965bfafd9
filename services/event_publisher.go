package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// PublisherInterface is the contract for emitting domain events
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// EventPublisher publishes domain events to a RabbitMQ topic exchange.
// Consumers (e.g. the Telegram notifier bot) bind their own queues.
type EventPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

var _ PublisherInterface = (*EventPublisher)(nil)

var publisherInstance PublisherInterface

// SetPublisher sets the process-wide event publisher. A nil publisher
// disables event publishing.
func SetPublisher(p PublisherInterface) {
	publisherInstance = p
}

// GetPublisher returns the configured event publisher, or nil
func GetPublisher() PublisherInterface {
	return publisherInstance
}

// NewEventPublisher connects to RabbitMQ and declares the exchange
func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &EventPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

// Publish sends the payload as JSON with the given routing key
func (p *EventPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close shuts down the channel and connection
func (p *EventPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// PublishedEvent records one event captured by the mock publisher
type PublishedEvent struct {
	RoutingKey string
	Data       any
}

// MockPublisher is an in-memory publisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

var _ PublisherInterface = (*MockPublisher)(nil)

// NewMockPublisher creates an empty mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event instead of sending it anywhere
func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{RoutingKey: routingKey, Data: data})
	return nil
}

// Events returns a copy of the recorded events
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedEvent, len(m.events))
	copy(out, m.events)
	return out
}
