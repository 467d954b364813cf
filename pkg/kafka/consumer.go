// Package kafka provides producer and consumer clients backed by
// segmentio/kafka-go. Events are JSON encoded and carry their type in a
// message header so one topic can hold several event shapes.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/config"
)

// TypeHeader names the header holding Event.Type.
const TypeHeader = "event-type"

// Message is a fetched record handed to a Handler.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Type      string
	Time      time.Time
}

// Handler processes one message. Returning an error leaves the offset
// uncommitted.
type Handler func(ctx context.Context, msg Message) error

type consumerOptions struct {
	groupID     string
	startOffset int64
}

// ConsumerOption adjusts how a Consumer joins its topic.
type ConsumerOption func(*consumerOptions)

// WithGroup overrides the configured consumer group.
func WithGroup(id string) ConsumerOption {
	return func(o *consumerOptions) { o.groupID = id }
}

// FromBeginning makes a new group replay the topic from the first offset.
func FromBeginning() ConsumerOption {
	return func(o *consumerOptions) { o.startOffset = kafka.FirstOffset }
}

type Consumer struct {
	reader  *kafka.Reader
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(cfg config.KafkaConfig, topic string, handler Handler, opts ...ConsumerOption) *Consumer {
	o := consumerOptions{groupID: cfg.ConsumerGroup, startOffset: kafka.LastOffset}
	for _, opt := range opts {
		opt(&o)
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     o.groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: o.startOffset,
	})
	return &Consumer{
		reader:  r,
		handler: handler,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", o.groupID),
	}
}

// Start fetches and dispatches messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		m := toMessage(msg)
		if err := c.handler(ctx, m); err != nil {
			c.logger.Error("failed to process message",
				"partition", m.Partition,
				"offset", m.Offset,
				"type", m.Type,
				"error", err,
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}
	}
}

func toMessage(msg kafka.Message) Message {
	m := Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Value:     msg.Value,
		Time:      msg.Time,
	}
	for _, h := range msg.Headers {
		if h.Key == TypeHeader {
			m.Type = string(h.Value)
		}
	}
	return m
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
