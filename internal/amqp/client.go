// Package amqp bridges the in-process change bus across API instances.
// Local changes are published to a fanout exchange; changes received from
// other instances are injected back into the local bus.
package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"spendtrack/internal/events"
	"spendtrack/internal/logger"
	"spendtrack/internal/uuid"
)

// Client wraps an AMQP connection for the change fanout.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	instanceID   string
}

// NewClient dials the broker and declares the fanout exchange plus this
// instance's exclusive queue.
func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		instanceID:   uuid.New(),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Exclusive auto-delete queue per instance; every instance sees every
	// change and the queue disappears with the connection.
	q, err := c.channel.QueueDeclare(
		"",    // name (server generated)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	c.queueName = q.Name

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		"",             // routing key (ignored by fanout)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// InstanceID returns this client's origin identifier.
func (c *Client) InstanceID() string {
	return c.instanceID
}

// PublishChange publishes a local change to the fanout exchange.
func (c *Client) PublishChange(ctx context.Context, ch events.Change) error {
	msg, err := NewChangeMessage(c.instanceID, ch)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		"",             // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Get().Debugw("published change",
		"table", ch.Table,
		"type", ch.Type,
		"exchange", c.exchangeName,
	)
	return nil
}

// ConsumeChanges receives remote changes and injects them into the bus.
// Messages originating from this instance are skipped. Blocks until ctx is
// cancelled or the delivery channel closes.
func (c *Client) ConsumeChanges(ctx context.Context, bus *events.Bus) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		true,        // auto-ack (changes are best-effort, a poll covers gaps)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger.Get().Infow("consuming remote changes", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger.Get().Infow("stopping change consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := ChangeMessageFromJSON(delivery.Body)
			if err != nil {
				logger.Get().Errorw("failed to unmarshal change message", "error", err)
				continue
			}
			if msg.Origin == c.instanceID {
				continue
			}

			bus.Inject(msg.ToChange())
		}
	}
}

// Close shuts down the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
