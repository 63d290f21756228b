package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const bufferSize = 128

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher buffers events and publishes them to a topic exchange from a
// single worker goroutine.
type AMQPPublisher struct {
	log      *zap.Logger
	exchange string
	conn     *amqp091.Connection
	ch       amqpChannel
	in       chan Event
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(ctx context.Context, url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "filevault",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	p, err := newAMQPPublisher(ch, exchange, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	log.Info("rabbitmq connected", zap.String("exchange", exchange))
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &AMQPPublisher{
		log:      log,
		exchange: exchange,
		ch:       ch,
		in:       make(chan Event, bufferSize),
	}, nil
}

// Publish enqueues the event, dropping it when the buffer is full.
func (p *AMQPPublisher) Publish(e Event) {
	select {
	case p.in <- e:
	default:
		p.log.Warn("event buffer full, dropping event",
			zap.String("event_type", e.Type),
			zap.String("event_id", e.ID.String()),
		)
	}
}

// Run publishes buffered events until ctx is cancelled, then closes the broker connection.
func (p *AMQPPublisher) Run(ctx context.Context) error {
	p.log.Info("starting event publisher")
	defer p.log.Info("event publisher stopped")

	for {
		select {
		case e := <-p.in:
			if err := p.publish(ctx, e); err != nil {
				p.log.Error("publish event", zap.String("event_type", e.Type), zap.Error(err))
			}
		case <-ctx.Done():
			p.close()
			return nil
		}
	}
}

func (p *AMQPPublisher) publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID.String(),
		Timestamp:    e.OccurredAt,
		Type:         e.Type,
		Body:         body,
	})
}

func (p *AMQPPublisher) close() {
	if err := p.ch.Close(); err != nil {
		p.log.Warn("close amqp channel", zap.Error(err))
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.log.Warn("close amqp connection", zap.Error(err))
		}
	}
}
