package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

const (
	sessionTimeout    = 10 * time.Second
	heartbeatInterval = 3 * time.Second
	retryInterval     = 5 * time.Second
)

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(value string) []string {
	brokers := make([]string, 0)

	for _, broker := range strings.Split(value, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}

	return brokers
}

// Consumer reads the stream topic through a consumer group and hands every
// message to a Processor.
type Consumer struct {
	topic     string
	group     sarama.ConsumerGroup
	processor *Processor
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewConsumer(brokers []string, topic, groupID string, processor *Processor, logger *slog.Logger) (*Consumer, error) {
	if topic == "" {
		return nil, errors.New("stream topic is required")
	}

	if len(brokers) == 0 {
		return nil, errors.New("stream brokers are required")
	}

	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Session.Timeout = sessionTimeout
	config.Consumer.Group.Heartbeat.Interval = heartbeatInterval
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Consumer{
		topic:     topic,
		group:     group,
		processor: processor,
		logger: logger.With(
			"module", "stream_consumer",
			"topic", topic,
			"consumer_group", groupID,
			"brokers", brokers,
		),
	}, nil
}

// Start consumes in the background until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.InfoContext(ctx, "Starting stream consumer")

	c.wg.Add(2)

	go c.consuming(ctx)
	go c.monitorErrors(ctx)
}

// Stop closes the consumer group and waits for the background loops.
func (c *Consumer) Stop() error {
	err := c.group.Close()

	c.wg.Wait()

	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}

	return nil
}

func (c *Consumer) consuming(ctx context.Context) {
	defer c.wg.Done()

	handler := &consumerGroupHandler{processor: c.processor, logger: c.logger}

	for {
		err := c.group.Consume(ctx, []string{c.topic}, handler)

		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return
		case err != nil:
			c.logger.ErrorContext(ctx, "Stream consumer error", "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(retryInterval):
			}
		}
	}
}

func (c *Consumer) monitorErrors(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}

			c.logger.ErrorContext(ctx, "Stream consumer group error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

type consumerGroupHandler struct {
	processor *Processor
	logger    *slog.Logger
}

func (h *consumerGroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.InfoContext(session.Context(), "Stream consumer group session started")

	return nil
}

func (h *consumerGroupHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.logger.InfoContext(session.Context(), "Stream consumer group session ended")

	return nil
}

// ConsumeClaim marks a message only after it was processed. A processing
// error ends the claim so the group rejoins from the last marked offset.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()

	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			h.logger.DebugContext(ctx, "Received stream message",
				"partition", message.Partition,
				"offset", message.Offset,
			)

			if err := h.processor.Process(ctx, message.Value); err != nil {
				return fmt.Errorf("offset %d: %w", message.Offset, err)
			}

			session.MarkMessage(message, "")
		}
	}
}
