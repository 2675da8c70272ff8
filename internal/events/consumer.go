package events

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// PrerenderQueue receives every stage change for the export worker.
const PrerenderQueue = "session_updates.prerender"

// Consumer reads stage changes from a durable queue bound to Exchange.
// Deliveries are not auto-acked; callers settle each one.
type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

// DialConsumer declares queue, binds it to every session routing key and starts consuming.
func DialConsumer(url, queue string, prefetch int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	c := &Consumer{conn: conn}
	if err := c.setup(queue, prefetch); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Consumer) setup(queue string, prefetch int) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	c.ch = ch
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, "session.*", Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}
	c.deliveries, err = ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	return nil
}

// Deliveries is closed when the connection or channel goes away.
func (c *Consumer) Deliveries() <-chan amqp.Delivery {
	return c.deliveries
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	return c.conn.Close()
}

// Decode parses a published stage change.
func Decode(body []byte) (StageChange, error) {
	var change StageChange
	if err := json.Unmarshal(body, &change); err != nil {
		return StageChange{}, err
	}
	return change, nil
}
