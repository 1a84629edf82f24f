package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"loadboard-dispatch/internal/logx"
	"loadboard-dispatch/internal/service/notify"
)

// HandleFunc processes a single notify.Event from Kafka
type HandleFunc func(context.Context, notify.Event) error

var newConsumerGroup = sarama.NewConsumerGroup

// Consumer wraps a Sarama consumer group and dispatches events to a handler
type Consumer struct {
	group      sarama.ConsumerGroup
	topic      string
	handler    HandleFunc
	logger     logx.Logger
	retryDelay time.Duration
}

// NewConsumer creates a new Kafka consumer. It returns nil when Kafka is not configured.
func NewConsumer(logger logx.Logger, brokers []string, groupID, topic string, h HandleFunc) (*Consumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{
		group:      group,
		topic:      topic,
		handler:    h,
		logger:     logger,
		retryDelay: time.Second,
	}, nil
}

// Run consumes until ctx is done
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}
	h := &groupHandler{c: c}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close closes the consumer group
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks bad and permanently failing messages and stops on the
// first transient failure so the message is delivered again.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	logger := h.c.logger
	for msg := range claim.Messages() {
		var dto NotificationDTO
		if err := json.Unmarshal(msg.Value, &dto); err != nil {
			logger.Warn("kafka bad json", logx.Err(err), logx.Int("partition", int(msg.Partition)))
			sess.MarkMessage(msg, "")
			continue
		}
		ev := ToDomain(dto)
		if ev.AssignmentID == "" {
			logger.Warn("kafka empty assignment_id")
			sess.MarkMessage(msg, "")
			continue
		}

		if err := h.c.handler(sess.Context(), ev); err != nil {
			fields := []logx.Field{
				logx.String("assignment_id", ev.AssignmentID),
				logx.String("kind", ev.Kind),
				logx.Err(err),
			}
			var perm PermanentError
			if errors.As(err, &perm) {
				logger.Error("kafka handle failed, skipping message", fields...)
				sess.MarkMessage(msg, "")
				continue
			}
			logger.Warn("kafka handle failed, will retry", fields...)
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
