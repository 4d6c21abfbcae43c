package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mgalindo/thumbview/internal/models"
	"github.com/mgalindo/thumbview/internal/services"
	"github.com/mgalindo/thumbview/internal/telemetry"
	"github.com/mgalindo/thumbview/internal/telemetry/metrics"
)

// Holds the config params for the consumer
type AMQPConfig struct {
	AMQPUri  string
	Exchange string

	GenQueueName   string
	EvictQueueName string
}

type AMQPConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	config    AMQPConfig
	pregenSvc *services.PregenService
	telemetry *telemetry.TelemetrySvc
}

// Creates a new AMQPConsumer instance ready to connect to broker
func NewAMQPConsumer(
	config AMQPConfig,
	pregenSvc *services.PregenService,
	telemetry *telemetry.TelemetrySvc,
) (*AMQPConsumer, error) {

	if config.AMQPUri == "" {
		return nil, fmt.Errorf("AMQP URI cannot be empty in config")
	}
	if config.Exchange == "" {
		return nil, fmt.Errorf("AMQP exchange cannot be empty in config")
	}
	if config.GenQueueName == "" {
		return nil, fmt.Errorf(
			"AMQP pregeneration queue name cannot be empty in config",
		)
	}
	if config.EvictQueueName == "" {
		return nil, fmt.Errorf(
			"AMQP eviction queue name cannot be empty in config",
		)
	}

	return &AMQPConsumer{
		config:    config,
		pregenSvc: pregenSvc,
		telemetry: telemetry,
	}, nil
}

// Connects to AMQP broker, declares exchange and queues and
// starts consuming messages
func (c *AMQPConsumer) Start(ctx context.Context) error {
	slog.Debug("AMQP - Initializing AMQP Consumer")

	var err error
	c.conn, err = amqp.Dial(c.config.AMQPUri)
	if err != nil {
		return fmt.Errorf("AMQP - Connection to broker failed: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to open channel: %w", err)
	}

	err = c.channel.ExchangeDeclare(
		c.config.Exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to declare exchange: %w", err)
	}

	// Helper function to declare and bind a given queue
	declareAndBind := func(queueName string) error {
		_, err := c.channel.QueueDeclare(
			queueName,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return err
		}

		return c.channel.QueueBind(
			queueName,         // Queue
			queueName,         // Routing key
			c.config.Exchange, // Exchange
			false,             // No-wait
			nil,               // Arguments
		)
	}

	if err := declareAndBind(c.config.GenQueueName); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf(
			"AMQP - Failed to declare/bind pregeneration queue: %w",
			err,
		)
	}

	if err := declareAndBind(c.config.EvictQueueName); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf(
			"AMQP - Failed to declare/bind eviction queue: %w",
			err,
		)
	}

	go c.consumeGenRequests(ctx)
	go c.consumeEvictRequests(ctx)
	return nil
}

// Gracefully stops the AMQP consumer
func (c *AMQPConsumer) Stop() {
	slog.Info("AMQP - Stopping AMQP Consumer...")

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			slog.Error("AMQP - Failed to close channel", "error", err)
		} else {
			slog.Debug("AMQP - Channel closed")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			slog.Error("AMQP - Failed to close connection", "error", err)
		} else {
			slog.Debug("AMQP - Connection closed")
		}
	}

	slog.Info("AMQP - AMQP Consumer stopped")
}

func (c *AMQPConsumer) consumeGenRequests(ctx context.Context) {
	msgs, err := c.channel.Consume(
		c.config.GenQueueName,
		"thumbview-gen", // Consumer tag
		false,           // Auto-acknowledge
		false,           // Exclusive
		false,           // No-local
		false,           // No-wait
		nil,             // Arguments
	)
	if err != nil {
		slog.Error(
			"AMQP - Failed to create pregeneration queue consumer",
			"error",
			err,
		)
		return
	}

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				slog.Info(
					"AMQP - Pregeneration message channel closed. goroutine exiting",
				)
				return
			}

			var genRequest models.GenerateRequest
			err := json.Unmarshal(msg.Body, &genRequest)
			if err != nil {
				slog.Error(
					"AMQP - Failed to unmarshal pregeneration message",
					"error",
					err,
					"message",
					string(msg.Body),
				)

				c.nack(msg)
				continue
			}

			c.telemetry.Metrics().Increment(metrics.GenRequestReceived, nil)

			err = c.pregenSvc.ProcessGenRequest(ctx, genRequest)
			if err != nil {
				slog.Error(
					"AMQP - Failed to process pregeneration request",
					"error",
					err,
					"source",
					genRequest.Source,
				)

				c.nack(msg)
				continue
			}

			// Acknowledge the message
			if err := msg.Ack(false); err != nil {
				slog.Error(
					"AMQP - Failed to acknowledge pregeneration message",
					"error",
					err,
				)
			}

		case <-ctx.Done():
			slog.Info(
				"AMQP - Context done signal received, " +
					"stopping pregeneration consumption goroutine...",
			)
			return
		}
	}
}

func (c *AMQPConsumer) consumeEvictRequests(ctx context.Context) {
	msgs, err := c.channel.Consume(
		c.config.EvictQueueName,
		"thumbview-evict", // Consumer tag
		false,             // Auto-acknowledge
		false,             // Exclusive
		false,             // No-local
		false,             // No-wait
		nil,               // Arguments
	)
	if err != nil {
		slog.Error(
			"AMQP - Failed to create eviction queue consumer",
			"error",
			err,
		)
		return
	}

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				slog.Info(
					"AMQP - Eviction message channel closed. goroutine exiting",
				)
				return
			}

			var evictRequest models.EvictRequest
			err := json.Unmarshal(msg.Body, &evictRequest)
			if err != nil {
				slog.Error(
					"AMQP - Failed to unmarshal eviction message",
					"error",
					err,
					"message",
					string(msg.Body),
				)

				c.nack(msg)
				continue
			}

			c.telemetry.Metrics().Increment(metrics.EvictRequestReceived, nil)

			err = c.pregenSvc.ProcessEvictRequest(ctx, evictRequest)
			if err != nil {
				slog.Error(
					"AMQP - Failed to process eviction request",
					"error",
					err,
					"source",
					evictRequest.Source,
				)

				c.nack(msg)
				continue
			}

			if err := msg.Ack(false); err != nil {
				slog.Error(
					"AMQP - Failed to acknowledge eviction message",
					"error",
					err,
				)
			}

		case <-ctx.Done():
			slog.Info(
				"AMQP - Context done signal received, " +
					"stopping eviction consumption goroutine...",
			)
			return
		}
	}
}

func (c *AMQPConsumer) nack(msg amqp.Delivery) {
	if err := msg.Nack(false, false); err != nil {
		slog.Error("AMQP - Failed to nack message", "error", err)
	}
}
