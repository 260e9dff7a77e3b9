package kafka

import (
	"context"
	"fmt"
	"rentals/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the producer and consumer use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func toKafkaMessage(msg Message) kafka.Message {
	kafkaMsg := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  msg.Timestamp,
	}
	for k, v := range msg.Headers {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{
			Key:   k,
			Value: []byte(v),
		})
	}
	return kafkaMsg
}

func fromKafkaMessage(kafkaMsg kafka.Message) Message {
	msg := Message{
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Headers:   make(map[string]string, len(kafkaMsg.Headers)),
		Topic:     kafkaMsg.Topic,
		Partition: kafkaMsg.Partition,
		Offset:    kafkaMsg.Offset,
		Timestamp: kafkaMsg.Time,
	}
	for _, header := range kafkaMsg.Headers {
		msg.Headers[header.Key] = string(header.Value)
	}
	return msg
}

func kafkaLogger(log *logger.Logger) kafka.LoggerFunc {
	return func(msg string, args ...any) {
		log.Debug("kafka-go", "detail", fmt.Sprintf(msg, args...))
	}
}

func kafkaErrorLogger(log *logger.Logger) kafka.LoggerFunc {
	return func(msg string, args ...any) {
		log.Error("kafka-go", "detail", fmt.Sprintf(msg, args...))
	}
}
