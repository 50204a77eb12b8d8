package notify

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
)

// Channel is the part of *amqp.Channel used for delivery.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPDispatcher publishes persistent JSON messages to an exchange.
type AMQPDispatcher struct {
	Channel    Channel
	Exchange   string
	RoutingKey string
}

// DialAMQP opens a connection and a channel on it.
func DialAMQP(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	return conn, ch, nil
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, n Notification) error {
	const op = "notify.AMQPDispatcher.Dispatch"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := encode(n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = d.Channel.Publish(
		d.Exchange,
		d.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    n.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
