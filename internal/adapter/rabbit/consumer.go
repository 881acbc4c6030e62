package rabbit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/metrics"
	"github.com/hubride/ride-pool-system/pkg/rabbit"
)

type NodeEventHandler func(ctx context.Context, msg models.NodeEventMessage) error
type LedgerEventHandler func(ctx context.Context, msg models.LedgerEventMessage) error

// HubConsumer feeds committed change events to read-side refreshers:
// the open-node cache and the WebSocket push hub.
type HubConsumer struct {
	client  *rabbit.RabbitMQ
	service string

	l logger.Logger
}

func NewHubConsumer(client *rabbit.RabbitMQ, service string, log logger.Logger) *HubConsumer {
	return &HubConsumer{
		client:  client,
		service: service,
		l:       log,
	}
}

// ConsumeNodeEvents runs until the context is cancelled, reconnecting
// on channel loss.
func (c *HubConsumer) ConsumeNodeEvents(ctx context.Context, handler NodeEventHandler) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_consume_node_events")

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "node event consumer stopped by context")
			return nil
		}

		if err := c.client.EnsureConnection(ctx); err != nil {
			c.l.Error(ctx, "ensure connection failed", err)
			time.Sleep(2 * time.Second)
			continue
		}

		msgs, err := c.client.Channel.Consume(QueueNodeEvents, "", false, false, false, false, nil)
		if err != nil {
			c.l.Error(ctx, "consume failed", err)
			time.Sleep(2 * time.Second)
			continue
		}

		c.l.Info(ctx, "start consuming node events", "queue", QueueNodeEvents)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				c.l.Info(ctx, "node event consumer shutting down")
				return nil

			case msg, ok := <-msgs:
				if !ok {
					c.l.Warn(ctx, "message channel closed, reconnecting...")
					time.Sleep(2 * time.Second)
					continue consumeLoop
				}

				go c.handleNodeEvent(ctx, msg, handler)
			}
		}
	}
}

func (c *HubConsumer) handleNodeEvent(ctx context.Context, d amqp091.Delivery, handler NodeEventHandler) {
	var msg models.NodeEventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.l.Error(ctx, "failed to unmarshal node event", err)
		metrics.RecordRabbitMQConsume(c.service, QueueNodeEvents, err)
		_ = d.Nack(false, false)
		return
	}

	ctx = wrap.WithRequestID(wrap.WithNodeID(ctx, msg.NodeID.String()), d.CorrelationId)

	err := handler(ctx, msg)
	metrics.RecordRabbitMQConsume(c.service, QueueNodeEvents, err)
	if err != nil {
		c.l.Error(wrap.ErrorCtx(ctx, err), "failed to handle node event", err)
		if isRecoverableError(err) {
			_ = d.Nack(false, true)
		} else {
			_ = d.Nack(false, false)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.l.Error(ctx, "failed to ack message", err)
	}
}

// ConsumeLedgerEvents pushes wallet movements to connected clients.
func (c *HubConsumer) ConsumeLedgerEvents(ctx context.Context, handler LedgerEventHandler) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_consume_ledger_events")

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "ledger event consumer stopped by context")
			return nil
		}

		if err := c.client.EnsureConnection(ctx); err != nil {
			c.l.Error(ctx, "ensure connection failed", err)
			time.Sleep(2 * time.Second)
			continue
		}

		msgs, err := c.client.Channel.Consume(QueueLedgerEvents, "", false, false, false, false, nil)
		if err != nil {
			c.l.Error(ctx, "consume failed", err)
			time.Sleep(2 * time.Second)
			continue
		}

		c.l.Info(ctx, "start consuming ledger events", "queue", QueueLedgerEvents)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				c.l.Info(ctx, "ledger event consumer shutting down")
				return nil

			case msg, ok := <-msgs:
				if !ok {
					c.l.Warn(ctx, "message channel closed, reconnecting...")
					time.Sleep(2 * time.Second)
					continue consumeLoop
				}

				go c.handleLedgerEvent(ctx, msg, handler)
			}
		}
	}
}

func (c *HubConsumer) handleLedgerEvent(ctx context.Context, d amqp091.Delivery, handler LedgerEventHandler) {
	var msg models.LedgerEventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.l.Error(ctx, "failed to unmarshal ledger event", err)
		metrics.RecordRabbitMQConsume(c.service, QueueLedgerEvents, err)
		_ = d.Nack(false, false)
		return
	}

	ctx = wrap.WithRequestID(ctx, d.CorrelationId)

	err := handler(ctx, msg)
	metrics.RecordRabbitMQConsume(c.service, QueueLedgerEvents, err)
	if err != nil {
		c.l.Error(wrap.ErrorCtx(ctx, err), "failed to handle ledger event", err)
		if isRecoverableError(err) {
			_ = d.Nack(false, true)
		} else {
			_ = d.Nack(false, false)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.l.Error(ctx, "failed to ack message", err)
	}
}
