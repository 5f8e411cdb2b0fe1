package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
)

// NewProducerConfig returns the producer settings used for domain events.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner // keeps a user's events ordered
	config.Version = sarama.V2_0_0_0
	config.ClientID = "tabletop-backend"
	config.Producer.MaxMessageBytes = 1000000
	return config
}

// Kafka publishes JSON events keyed by user ID.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafka dials brokers and returns a publisher for topic.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaFromProducer(producer, topic), nil
}

// NewKafkaFromProducer wraps an existing producer.
func NewKafkaFromProducer(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	}
	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the producer.
func (k *Kafka) Close() error {
	return k.producer.Close()
}
