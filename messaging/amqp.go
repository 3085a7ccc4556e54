package messaging

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kitsune-sumo/settings/logger"
)

// Internal interfaces and adapters to enable testing without a real broker
type amqpConnection interface {
	Channel() (amqpChannel, error)
	IsClosed() bool
	Close() error
}

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type realConnection struct{ c *amqp.Connection }

func (r realConnection) Channel() (amqpChannel, error) {
	ch, err := r.c.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r realConnection) IsClosed() bool { return r.c.IsClosed() }
func (r realConnection) Close() error   { return r.c.Close() }

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return realConnection{c: conn}, nil
}

// AMQPPublisher publishes to queues on the default exchange. It connects on
// the first Publish and reconnects after the connection or channel drops.
type AMQPPublisher struct {
	url  string
	log  logger.Logger
	dial func(url string) (amqpConnection, error)

	mu       sync.Mutex
	conn     amqpConnection
	channel  amqpChannel
	declared map[string]struct{}
	closed   bool
}

var _ Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher creates a publisher for brokerURL. No connection is made
// until the first Publish.
func NewAMQPPublisher(brokerURL string, log logger.Logger) *AMQPPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &AMQPPublisher{
		url:      brokerURL,
		log:      log,
		dial:     dialAMQP,
		declared: make(map[string]struct{}),
	}
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}

	if _, ok := p.declared[queue]; !ok {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			p.resetChannel()
			return fmt.Errorf("messaging: declare queue %q: %w", queue, err)
		}
		p.declared[queue] = struct{}{}
	}

	contentType := msg.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Headers:      amqp.Table(msg.Headers),
		Body:         msg.Body,
	})
	if err != nil {
		p.resetChannel()
		return fmt.Errorf("messaging: publish to %q: %w", queue, err)
	}
	return nil
}

// ensureChannel must be called with p.mu held.
func (p *AMQPPublisher) ensureChannel() (amqpChannel, error) {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("messaging: dial %s: %w", redactURL(p.url), err)
		}
		p.conn = conn
		p.channel = nil
		p.log.Info().Str("broker_url", p.url).Msg("Connected to message broker")
	}

	if p.channel == nil || p.channel.IsClosed() {
		ch, err := p.conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("messaging: open channel: %w", err)
		}
		p.channel = ch
		// Redeclare queues on the new channel.
		clear(p.declared)
	}

	return p.channel, nil
}

// resetChannel must be called with p.mu held.
func (p *AMQPPublisher) resetChannel() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	p.channel = nil
}

// Close implements Publisher. Safe to call multiple times.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.resetChannel()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
