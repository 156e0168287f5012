package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// VerdictPublisher publishes claim evaluation events to RabbitMQ.
// Metrics are atomic: batch evaluation publishes from multiple
// goroutines at once.
type VerdictPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
	lastPublishNano   atomic.Int64
}

// NewVerdictPublisher creates a new claim evaluation event publisher
func NewVerdictPublisher(conn *RabbitMQConnection) *VerdictPublisher {
	p := &VerdictPublisher{conn: conn}
	p.lastPublishNano.Store(time.Now().UnixNano())
	return p
}

// PublishEvent publishes a claim evaluation event to the claim_evaluated_events queue
func (p *VerdictPublisher) PublishEvent(ctx context.Context, event ClaimEvaluatedEvent) error {
	// Ensure the queue exists
	_, err := p.conn.Channel.QueueDeclare(
		ClaimEvaluatedQueue, // queue name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to marshal claim evaluated event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",                  // exchange
		ClaimEvaluatedQueue, // routing key (queue name)
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to publish claim evaluated event: %w", err)
	}

	p.messagesPublished.Add(1)
	p.lastPublishNano.Store(time.Now().UnixNano())

	slog.Info("Claim evaluated event published",
		"queue", ClaimEvaluatedQueue,
		"evaluation_id", event.EvaluationID,
		"approved", event.Approved,
	)

	return nil
}

// GetMetrics returns publisher metrics
func (p *VerdictPublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished.Load(),
		"messages_failed":    p.messagesFailed.Load(),
		"last_publish_time":  time.Unix(0, p.lastPublishNano.Load()),
		"queue":              ClaimEvaluatedQueue,
	}
}

// HealthCheck returns the health status of the publisher
func (p *VerdictPublisher) HealthCheck() PublisherHealthStatus {
	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished.Load(),
		MessagesFailed:    p.messagesFailed.Load(),
		LastPublishTime:   time.Unix(0, p.lastPublishNano.Load()),
		Queue:             ClaimEvaluatedQueue,
	}
}

// PublisherHealthStatus represents the health status of the publisher
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}
