// Package events announces session stage changes to interested listeners.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"resume-enhancer/internal/workflow"
)

// Exchange is the topic exchange stage changes are published to.
const Exchange = "session_updates"

// StageChange describes one accepted workflow event.
type StageChange struct {
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId"`
	Event     string         `json:"event"`
	From      workflow.Stage `json:"from"`
	To        workflow.Stage `json:"to"`
	At        time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, change StageChange) error
}

// NopPublisher drops every change.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, StageChange) error { return nil }

// RoutingKey is "session.<id>" so consumers can bind per session or with "session.*".
func RoutingKey(sessionID string) string {
	return fmt.Sprintf("session.%s", sessionID)
}

type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes changes to RabbitMQ, one short-lived channel per message.
type AMQPPublisher struct {
	mu          sync.Mutex
	conn        *amqp.Connection
	openChannel func() (channel, error)
}

// DialAMQP connects and declares the durable topic exchange.
func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := &AMQPPublisher{conn: conn}
	p.openChannel = func() (channel, error) { return conn.Channel() }
	return p, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, change StageChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if change.SessionID == "" {
		return errors.New("stage change without session id")
	}
	body, err := json.Marshal(change)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return ch.Publish(Exchange, RoutingKey(change.SessionID), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    change.At,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*AMQPPublisher)(nil)
)
