package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wedbook/internal/shared/config"
	"wedbook/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher writes pipeline events to the bus
type Publisher interface {
	Publish(ctx context.Context, event *PipelineEvent) error
	Close() error
}

// KafkaPublisher publishes to one topic through a sarama SyncProducer
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewProducerConfig is the sarama config for the pipeline producer.
// Events of one booking hash to one partition so consumers see them in order.
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, log), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer; tests pass a sarama mock
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log.WithComponent("notifications.producer"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *PipelineEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID.String())},
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("producer"), Value: []byte("wedbook")},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send pipeline event: %w", err)
	}

	p.log.DebugContext(ctx, "pipeline event published",
		slog.String("type", string(event.Type)),
		slog.String("key", event.PartitionKey()),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

// LogPublisher stands in when Kafka is disabled
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.WithComponent("notifications.producer")}
}

func (p *LogPublisher) Publish(ctx context.Context, event *PipelineEvent) error {
	p.log.InfoContext(ctx, "pipeline event (kafka disabled)",
		slog.String("type", string(event.Type)),
		slog.String("key", event.PartitionKey()))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
