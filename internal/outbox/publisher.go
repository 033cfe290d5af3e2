package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/config"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

// Publisher sends mutation notifications to RabbitMQ. Publishing is
// fire-and-forget from the orchestrators' perspective: a failure here never
// rolls back the warehouse write that preceded it.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.QueueConfig
	mu      sync.RWMutex
}

func connURLFor(cfg *config.QueueConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

// NewPublisher connects to RabbitMQ and declares the exchange, queue and
// binding used by downstream workers.
func NewPublisher(cfg *config.QueueConfig) (*Publisher, error) {
	p := &Publisher{
		config: cfg,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Publisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := amqp.Dial(connURLFor(p.config))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		p.config.Queue, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(
		p.config.Queue,      // queue name
		p.config.RoutingKey, // routing key
		p.config.Exchange,   // exchange
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	p.conn = conn
	p.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", p.config.Exchange),
		zap.String("queue", p.config.Queue),
	)

	return nil
}

// PublishBlacklist sends one blacklist create/delete notification.
func (p *Publisher) PublishBlacklist(ctx context.Context, msg *BlacklistMessage) error {
	return p.publish(ctx, msg, msg.ID)
}

// PublishSyncTrigger sends one on-demand sync request.
func (p *Publisher) PublishSyncTrigger(ctx context.Context, msg *SyncTriggerMessage) error {
	return p.publish(ctx, msg, msg.EventCode)
}

func (p *Publisher) publish(ctx context.Context, payload any, messageID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.config.Exchange,   // exchange
		p.config.RoutingKey, // routing key
		true,                // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    messageID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logger.Log.Debug("Published outbox message",
		zap.String("messageId", messageID),
		zap.Int("bytes", len(body)),
	)

	return nil
}

// IsHealthy reports whether the connection is open.
func (p *Publisher) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return err
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
		p.conn = nil
	}
	return nil
}
