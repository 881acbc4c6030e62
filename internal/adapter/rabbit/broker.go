package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/metrics"
	"github.com/hubride/ride-pool-system/pkg/rabbit"
)

const (
	HubExchange = "hub_events"

	QueueNodeEvents    = "node_events"
	QueueLedgerEvents  = "ledger_events"
	QueueMissionEvents = "mission_events"
)

// HubBroker publishes the post-commit change feed. Services call it
// after their transaction commits; a publish failure is logged by the
// caller and never rolls business state back.
type HubBroker struct {
	client  *rabbit.RabbitMQ
	service string

	l logger.Logger
}

func NewHubBroker(client *rabbit.RabbitMQ, service string, log logger.Logger) *HubBroker {
	return &HubBroker{
		client:  client,
		service: service,
		l:       log,
	}
}

// Declare sets up the topic exchange and the queues consumers read from.
func (b *HubBroker) Declare(ctx context.Context) error {
	if err := b.client.EnsureConnection(ctx); err != nil {
		return wrap.Error(ctx, err)
	}

	if err := b.client.Channel.ExchangeDeclare(HubExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	bindings := map[string]string{
		QueueNodeEvents:    "node.#",
		QueueLedgerEvents:  "ledger.#",
		QueueMissionEvents: "mission.#",
	}
	for queue, key := range bindings {
		if _, err := b.client.Channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := b.client.Channel.QueueBind(queue, key, HubExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// PublishNodeEvent sends a node lifecycle change with routing key
// 'node.{status}' (or 'node.deleted').
func (b *HubBroker) PublishNodeEvent(ctx context.Context, msg models.NodeEventMessage) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_node_event")

	key := fmt.Sprintf("node.%s", msg.Status)
	if msg.Deleted {
		key = "node.deleted"
	}

	err := b.publish(ctx, key, msg.CorrelationID, msg)
	metrics.RecordRabbitMQPublish(b.service, QueueNodeEvents, err)
	return err
}

// PublishLedgerEvent sends a wallet movement with routing key
// 'ledger.{transaction type}'.
func (b *HubBroker) PublishLedgerEvent(ctx context.Context, msg models.LedgerEventMessage) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_ledger_event")

	err := b.publish(ctx, fmt.Sprintf("ledger.%s", msg.Type), msg.CorrelationID, msg)
	metrics.RecordRabbitMQPublish(b.service, QueueLedgerEvents, err)
	return err
}

// PublishMissionEvent sends mission joins with routing key 'mission.joined'.
func (b *HubBroker) PublishMissionEvent(ctx context.Context, msg models.MissionEventMessage) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_mission_event")

	err := b.publish(ctx, "mission.joined", "", msg)
	metrics.RecordRabbitMQPublish(b.service, QueueMissionEvents, err)
	return err
}

func (b *HubBroker) publish(ctx context.Context, key, correlationID string, msg any) error {
	if err := b.client.EnsureConnection(ctx); err != nil {
		b.l.Error(ctx, "ensure connection failed", err)
		return wrap.Error(ctx, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal message: %w", err))
	}

	if err := retry(5, time.Second, func() error {
		return b.client.Channel.PublishWithContext(
			ctx,
			HubExchange,
			key,
			false, // mandatory
			false, // immediate
			amqp091.Publishing{
				ContentType:   "application/json",
				CorrelationId: correlationID,
				Body:          body,
				Timestamp:     time.Now(),
			},
		)
	}); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to publish %s: %w", key, err))
	}
	return nil
}
