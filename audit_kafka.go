package authcore

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// KafkaSink defines a public type used by the authcore APIs.
//
// Events are keyed by event type so a partitioned topic keeps per-flow
// ordering. Delivery failures are dropped; audit is best effort by contract.
//
// KafkaSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink describes the newkafkasink operation and its observable behavior.
//
// NewKafkaSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *KafkaSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EventType),
		Value: data,
	})
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *KafkaSink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
