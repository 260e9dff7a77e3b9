package kafka

import (
	"context"
	"errors"
	"fmt"
	"rentals/pkg/logger"
	"sync"
	"time"

	kafka_config "rentals/pkg/kafka/config"

	"github.com/segmentio/kafka-go"
)

const maxDLQBackoff = 30 * time.Second

type Consumer struct {
	reader       messageReader
	dlqWriter    messageWriter
	topic        string
	groupID      string
	dlqTopic     string
	maxRetries   int
	retryBackoff time.Duration
	handler      MessageHandler
	log          *logger.Logger
	middleware   []ConsumerMiddleware
	closed       bool
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, log *logger.Logger, topic string, groupID string, dlqTopic string, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}

	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          cfg.ConsumerMinBytes,
		MaxBytes:          cfg.ConsumerMaxBytes,
		MaxWait:           cfg.ConsumerMaxWait,
		CommitInterval:    cfg.ConsumerCommitInterval,
		HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
		SessionTimeout:    cfg.ConsumerSessionTimeout,
		RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
		StartOffset:       cfg.ConsumerStartOffset,
		Logger:            kafkaLogger(log),
		ErrorLogger:       kafkaErrorLogger(log),
	})

	var dlqWriter messageWriter
	if dlqTopic != "" {
		dlqWriter = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  dlqTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			MaxAttempts:            3,
			AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
			Logger:                 kafkaLogger(log),
			ErrorLogger:            kafkaErrorLogger(log),
		}
	}

	c := newConsumer(reader, dlqWriter, topic, groupID, dlqTopic, handler, log)
	c.maxRetries = cfg.ConsumerMaxRetries
	c.retryBackoff = cfg.ConsumerRetryBackoff
	return c, nil
}

func newConsumer(reader messageReader, dlqWriter messageWriter, topic, groupID, dlqTopic string, handler MessageHandler, log *logger.Logger) *Consumer {
	return &Consumer{
		reader:       reader,
		dlqWriter:    dlqWriter,
		topic:        topic,
		groupID:      groupID,
		dlqTopic:     dlqTopic,
		maxRetries:   kafka_config.DefaultConsumerMaxRetries,
		retryBackoff: kafka_config.DefaultConsumerRetryBackoff,
		handler:      handler,
		log:          log,
		middleware:   make([]ConsumerMiddleware, 0),
	}
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start consumes until ctx is cancelled. Each message is committed once it
// was handled, retried to exhaustion, or parked in the DLQ.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.wg.Add(1)
	c.mu.RUnlock()
	defer c.wg.Done()

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			if c.isClosed() {
				return ErrConsumerClosed
			}
			c.log.Error("Failed to fetch kafka message", "topic", c.topic, "error", err)
			if !sleepCtx(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		msg := fromKafkaMessage(kafkaMsg)

		if err := c.processMessage(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("Kafka message was not processed",
				"topic", c.topic,
				"offset", msg.Offset,
				"event_id", msg.GetEventID(),
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
			c.log.Error("Failed to commit kafka offset", "topic", c.topic, "offset", kafkaMsg.Offset, "error", err)
		}
	}
}

func (c *Consumer) chain() MessageHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	handler := c.handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return handler
}

func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	handler := c.chain()

	for {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}

		retries := msg.GetRetryCount()
		if ShouldRetry(err, retries, c.maxRetries) {
			msg.Headers = msg.cloneHeaders()
			msg.IncrementRetryCount()
			c.log.Warn("Retrying kafka message",
				"attempt", retries+1,
				"max_retries", c.maxRetries,
				"event_id", msg.GetEventID(),
				"error", err,
			)
			if !sleepCtx(ctx, c.retryBackoff*time.Duration(retries+1)) {
				return ctx.Err()
			}
			continue
		}

		if c.dlqWriter != nil {
			if !c.parkInDLQ(ctx, msg, err) {
				return ctx.Err()
			}
			c.log.Warn("Message sent to DLQ", "dlq_topic", c.dlqTopic, "retries", retries, "error", err)
		}
		return err
	}
}

// parkInDLQ keeps writing msg to the DLQ until it succeeds. It returns false
// only when ctx ends first, in which case the offset must stay uncommitted.
func (c *Consumer) parkInDLQ(ctx context.Context, msg Message, originalErr error) bool {
	backoff := c.retryBackoff
	for {
		dlqErr := c.sendToDLQ(ctx, msg, originalErr)
		if dlqErr == nil {
			return true
		}
		c.log.Error("Failed to send message to DLQ",
			"dlq_topic", c.dlqTopic,
			"event_id", msg.GetEventID(),
			"error", dlqErr,
			"original_error", originalErr,
		)
		if !sleepCtx(ctx, backoff) {
			return false
		}
		backoff = min(max(backoff*2, time.Millisecond), maxDLQBackoff)
	}
}

func (c *Consumer) sendToDLQ(ctx context.Context, msg Message, originalErr error) error {
	msg.Headers = msg.cloneHeaders()
	msg.Headers[HeaderOriginalTopic] = c.topic
	msg.Headers[HeaderDLQError] = originalErr.Error()
	msg.Headers[HeaderDLQTimestamp] = time.Now().UTC().Format(time.RFC3339)
	msg.Headers["dlq-consumer-group"] = c.groupID
	msg.Timestamp = time.Now().UTC()

	return c.dlqWriter.WriteMessages(ctx, toKafkaMessage(msg))
}

func (c *Consumer) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}

	c.wg.Wait()

	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}

	return err
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
