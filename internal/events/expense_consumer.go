package events

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/cardscout/service-benefit/internal/platform/kafka"
)

// ExpenseHandler processes a posted expense. Implemented by the calculator.
type ExpenseHandler interface {
	HandleExpensePosted(ctx context.Context, evt ExpensePostedEvent) error
}

// ExpenseEventConsumer listens to expense events and triggers the automatic
// benefit calculation.
type ExpenseEventConsumer struct {
	consumer *kafka.Consumer
	handler  ExpenseHandler
	logger   *zap.Logger
}

// NewExpenseEventConsumer creates a consumer for expense events.
func NewExpenseEventConsumer(brokers []string, groupID string, handler ExpenseHandler, logger *zap.Logger) *ExpenseEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicExpenseEvents, logger)
	return &ExpenseEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming expense events. It blocks until ctx is cancelled.
func (c *ExpenseEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage routes incoming Kafka messages to the calculator.
func (c *ExpenseEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from expense topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	c.logger.Info("received expense event",
		zap.String("type", cloudEvent.Type),
		zap.String("id", cloudEvent.ID),
	)

	switch {
	case strings.EqualFold(cloudEvent.Type, ExpensePosted):
		var evt ExpensePostedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse ExpensePostedEvent data", zap.Error(err))
			return err
		}
		return c.handler.HandleExpensePosted(ctx, evt)

	default:
		c.logger.Debug("ignoring unhandled expense event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// Close closes the underlying Kafka consumer.
func (c *ExpenseEventConsumer) Close() error {
	return c.consumer.Close()
}
