package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"canopycover-extractor/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// jobTimeout bounds one whole field job: raster download, the plot loop
// and the bulk submission.
const jobTimeout = 30 * time.Minute

// ExtractionHandler runs one field job for an incoming resource.
type ExtractionHandler interface {
	HandleExtraction(ctx context.Context, req models.ExtractionRequest) error
}

// ExtractionConsumer pulls extraction requests off the queue and feeds them
// to the handler one at a time.
type ExtractionConsumer struct {
	broker            *Broker
	queue             string
	handler           ExtractionHandler
	messagesProcessed int64
	messagesFailed    int64
}

func NewExtractionConsumer(broker *Broker, queue string, handler ExtractionHandler) *ExtractionConsumer {
	return &ExtractionConsumer{
		broker:  broker,
		queue:   queue,
		handler: handler,
	}
}

// Start launches the consumer loop with auto-reconnect. It returns
// immediately; the loop stops when ctx is cancelled.
func (c *ExtractionConsumer) Start(ctx context.Context) error {
	slog.Info("Starting extraction consumer", "queue", c.queue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("Extraction consumer stopped - context cancelled")
				return
			default:
			}

			err := c.consumeLoop(ctx)

			if ctx.Err() != nil {
				slog.Info("Extraction consumer stopped - context done")
				return
			}

			if err != nil {
				slog.Error("Extraction consumer loop failed, reconnecting in 5 seconds", "error", err)
				time.Sleep(5 * time.Second)

				if c.broker.Connection != nil && !c.broker.Connection.IsClosed() {
					ch, chErr := c.broker.Connection.Channel()
					if chErr == nil {
						if c.broker.Channel != nil {
							c.broker.Channel.Close()
						}
						c.broker.Channel = ch
						slog.Info("RabbitMQ channel recreated successfully")
					} else {
						slog.Error("Failed to recreate channel", "error", chErr)
					}
				} else {
					slog.Error("RabbitMQ connection is closed, waiting for reconnection")
				}
			}
		}
	}()

	return nil
}

func (c *ExtractionConsumer) consumeLoop(ctx context.Context) error {
	// One unacked message at a time: a field job runs to completion before
	// the next message is accepted.
	if err := c.broker.Channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.broker.Channel.Consume(
		c.queue,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (ack manually after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("Extraction consumer started successfully", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Consumer loop stopping - context cancelled")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				slog.Warn("Extraction consumer channel closed")
				return fmt.Errorf("message channel closed")
			}
			c.processMessage(ctx, msg)
		}
	}
}

func (c *ExtractionConsumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	var req models.ExtractionRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		slog.Error("failed to unmarshal extraction request", "error", err)
		c.messagesFailed++
		// Malformed message: reject without requeue.
		msg.Nack(false, false)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	slog.Info("Received extraction request",
		"request_id", req.ID,
		"resource", req.Resource.Name,
		"dataset", req.Resource.ParentDatasetID,
	)

	if err := c.handler.HandleExtraction(jobCtx, req); err != nil {
		slog.Error("extraction request failed",
			"request_id", req.ID,
			"error", err,
		)
		c.messagesFailed++
		// Requeue for retry.
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
	c.messagesProcessed++
	slog.Info("Extraction request processed successfully", "request_id", req.ID)
}
