package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"job-search-mas/internal/domain/ports/adapter"
)

var _ adapter.EventPublisher = (*RabbitPublisher)(nil)

const DefaultExchange = "session_updates"

// RoutingKey is the topic key a session's events are published under.
func RoutingKey(sessionID string) string {
	return fmt.Sprintf("session.%s", sessionID)
}

type publishChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes session events to a durable topic exchange.
// A broken channel is reopened on the next publish.
type RabbitPublisher struct {
	conn     *amqp.Connection
	exchange string
	log      *zerolog.Logger

	mu     sync.Mutex
	ch     publishChannel
	reopen func() (publishChannel, error)
}

func NewRabbitPublisher(url, exchange string, logger *zerolog.Logger) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	l := logger.With().Str("component", "events").Str("exchange", exchange).Logger()
	p := &RabbitPublisher{conn: conn, exchange: exchange, log: &l, ch: ch}
	p.reopen = func() (publishChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	return p, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, ev adapter.SessionEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		ch, err := p.reopen()
		if err != nil {
			return fmt.Errorf("reopen rabbitmq channel: %w", err)
		}
		p.ch = ch
	}
	err = p.ch.Publish(p.exchange, RoutingKey(ev.SessionID), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    ev.At,
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		_ = p.ch.Close()
		p.ch = nil
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.log.Debug().Str("type", ev.Type).Str("session_id", ev.SessionID).Msg("event published")
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
