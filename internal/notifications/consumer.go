package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wedbook/internal/shared/config"
	"wedbook/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	SupportEmail string
	MaxRetries   int
	RetryBackoff time.Duration
}

func NewConsumerConfig(kafka config.KafkaConfig, email config.EmailConfig) ConsumerConfig {
	return ConsumerConfig{
		Brokers:      kafka.Brokers,
		GroupID:      kafka.GroupID,
		Topic:        kafka.Topic,
		SupportEmail: email.SupportEmail,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// Consumer reads the pipeline topic as part of a consumer group and sends the
// emails the events call for
type Consumer struct {
	group   sarama.ConsumerGroup
	handler *handler
	topic   string
	log     *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(cfg ConsumerConfig, mailer Mailer, log *logger.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	log = log.WithComponent("notifications.consumer")
	return &Consumer{
		group:   group,
		handler: newHandler(mailer, cfg, log),
		topic:   cfg.Topic,
		log:     log,
	}, nil
}

// Start consumes in the background until Stop is called
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.log.ErrorContext(ctx, "consumer group error", slog.String("error", err.Error()))
		}
	}()
	go func() {
		defer c.wg.Done()
		for {
			// Consume returns on every rebalance
			if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.log.ErrorContext(ctx, "consume failed", slog.String("error", err.Error()))
				time.Sleep(time.Second)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	c.log.InfoContext(ctx, "notification consumer started", slog.String("topic", c.topic))
}

func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.group.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

// handler implements sarama.ConsumerGroupHandler
type handler struct {
	mailer       Mailer
	supportEmail string
	maxRetries   int
	backoff      time.Duration
	log          *logger.Logger
}

func newHandler(mailer Mailer, cfg ConsumerConfig, log *logger.Logger) *handler {
	return &handler{
		mailer:       mailer,
		supportEmail: cfg.SupportEmail,
		maxRetries:   cfg.MaxRetries,
		backoff:      cfg.RetryBackoff,
		log:          log,
	}
}

func (h *handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				// not marked; redelivered after the next rebalance
				h.log.ErrorContext(session.Context(), "failed to process pipeline event",
					slog.Int("partition", int(message.Partition)),
					slog.Int64("offset", message.Offset),
					slog.String("error", err.Error()))
				continue
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *handler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event PipelineEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// a malformed event will never parse; drop it
		h.log.WarnContext(ctx, "dropping malformed pipeline event",
			slog.Int64("offset", message.Offset), slog.String("error", err.Error()))
		return nil
	}

	email, ok, err := renderEmail(&event, h.supportEmail)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := h.sendWithRetry(ctx, email); err != nil {
		return fmt.Errorf("email for %s event %s: %w", event.Type, event.ID, err)
	}
	h.log.InfoContext(ctx, "notification email sent",
		slog.String("type", string(event.Type)),
		slog.String("key", event.PartitionKey()))
	return nil
}

func (h *handler) sendWithRetry(ctx context.Context, email EmailMessage) error {
	var err error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if err = h.mailer.Send(ctx, email); err == nil {
			return nil
		}
		if attempt == h.maxRetries {
			break
		}

		delay := h.backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
