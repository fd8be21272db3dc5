// Package event receives extraction requests from the host runtime's
// message broker. One field job is consumed and processed end-to-end at a
// time; the prefetch count of 1 keeps the broker from outpacing the loop.
package event

import (
	"fmt"
	"log/slog"

	"canopycover-extractor/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker holds the RabbitMQ connection and the channel the extraction
// queue is consumed on.
type Broker struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
}

// ConnectBroker dials RabbitMQ and opens a channel with the extraction
// queue declared durable.
func ConnectBroker(cfg config.RabbitMQConfig, queue string) (*Broker, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	slog.Info("Connected to RabbitMQ", "host", cfg.Host, "port", cfg.Port, "queue", queue)

	return &Broker{
		Connection: conn,
		Channel:    ch,
	}, nil
}

// Close closes the channel and connection.
func (b *Broker) Close() error {
	if b.Channel != nil {
		if err := b.Channel.Close(); err != nil {
			slog.Error("failed to close RabbitMQ channel", "error", err)
		}
	}
	if b.Connection != nil {
		if err := b.Connection.Close(); err != nil {
			slog.Error("failed to close RabbitMQ connection", "error", err)
			return err
		}
	}
	slog.Info("RabbitMQ connection closed")
	return nil
}
