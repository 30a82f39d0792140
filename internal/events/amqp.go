package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// publishTimeout bounds a single broker publish
const publishTimeout = 5 * time.Second

// AMQPPublisher forwards invalidation signals to a RabbitMQ topic exchange so
// out-of-process aggregate workers can refresh. The routing key is "<key>.invalidated".
type AMQPPublisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

// NewAMQPPublisher dials the broker and declares the exchange
func NewAMQPPublisher(url, exchangeName string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("exchange", exchangeName).Msg("AMQP invalidation publisher ready")

	return &AMQPPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
	}, nil
}

// HandleInvalidation implements Subscriber
func (p *AMQPPublisher) HandleInvalidation(ctx context.Context, inv Invalidation) error {
	body, err := EncodeInvalidation(inv)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		p.exchangeName,
		RoutingKey(inv.Key),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    inv.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Close releases the channel and connection
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RoutingKey returns the routing key used for an invalidation key
func RoutingKey(key string) string {
	return key + ".invalidated"
}

// EncodeInvalidation serializes an invalidation for the wire
func EncodeInvalidation(inv Invalidation) ([]byte, error) {
	return json.Marshal(inv)
}

// DecodeInvalidation parses a message produced by EncodeInvalidation
func DecodeInvalidation(data []byte) (Invalidation, error) {
	var inv Invalidation
	if err := json.Unmarshal(data, &inv); err != nil {
		return Invalidation{}, err
	}
	return inv, nil
}
