// Package rabbitmq publishes and consumes order events.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"kabro/internal/models"

	amqp "github.com/streadway/amqp"
)

// OrderQueue is the durable queue carrying order.placed events.
const OrderQueue = "order_events"

// EventOrderPlaced is the message type header of an order event.
const EventOrderPlaced = "order.placed"

// channel is the subset of *amqp.Channel used by the client.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the order queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := newClient(conn, ch)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	log.Printf("RabbitMQ client connected, queue %s declared", OrderQueue)
	return c, nil
}

func newClient(conn *amqp.Connection, ch channel) (*Client, error) {
	if err := declare(ch); err != nil {
		return nil, err
	}
	return &Client{conn: conn, channel: ch}, nil
}

func declare(ch channel) error {
	_, err := ch.QueueDeclare(
		OrderQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", OrderQueue, err)
	}
	return nil
}

// Close closes the channel and then the connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishOrderPlaced publishes a persistent JSON order.placed event.
func (c *Client) PublishOrderPlaced(ctx context.Context, event models.OrderPlacedEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = c.channel.Publish(
		"", // default exchange
		OrderQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         EventOrderPlaced,
			MessageId:    fmt.Sprintf("order-%d", event.OrderID),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// ConsumeOrderEvents delivers order events to handle until ctx is done or the
// channel closes. A handler error requeues the message once; malformed
// messages are dropped.
func (c *Client) ConsumeOrderEvents(ctx context.Context, handle func(context.Context, models.OrderPlacedEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		OrderQueue,
		"",    // consumer tag
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			processDelivery(ctx, msg, handle)
		}
	}
}

func processDelivery(ctx context.Context, msg amqp.Delivery, handle func(context.Context, models.OrderPlacedEvent) error) {
	var event models.OrderPlacedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("Dropping malformed order event %d: %v", msg.DeliveryTag, err)
		if err := msg.Nack(false, false); err != nil {
			log.Printf("Error nacking message %d: %v", msg.DeliveryTag, err)
		}
		return
	}

	if err := handle(ctx, event); err != nil {
		log.Printf("Error processing order event %d: %v", event.OrderID, err)
		if err := msg.Nack(false, !msg.Redelivered); err != nil {
			log.Printf("Error nacking message %d: %v", msg.DeliveryTag, err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		log.Printf("Error acking message %d: %v", msg.DeliveryTag, err)
	}
}

// LogOrderEvent is the default order-events handler.
func LogOrderEvent(_ context.Context, event models.OrderPlacedEvent) error {
	customer := "guest"
	if event.UserID != nil {
		customer = fmt.Sprintf("user %d", *event.UserID)
	}
	log.Printf("Order #%d placed by %s: %d item(s), total %s", event.OrderID, customer, event.Items, models.FormatMoney(event.Total))
	return nil
}
