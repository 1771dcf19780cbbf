package service

import (
	"context"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// MessageIterator defines the contract for consuming messages from a Kafka topic.
// It is used by the service's Iterator to abstract away the details of the
// underlying Kafka consumer.
//
// Implementations are responsible for the lifecycle of the consumer connection.
type MessageIterator interface {
	// Messages returns a receive-only channel of Kafka messages. The channel
	// is closed by the implementation when the consumer is stopped.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been successfully processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes the object at bucket/key. It must honor ctx.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a loaded object with the notification that announced it.
type FetchedObject[T any] struct {
	Data   T
	Bucket string
	Key    string
	// Event is the notification record that triggered the fetch.
	Event notification.Event

	msg    kafka.Message
	commit func(ctx context.Context, msg kafka.Message) error
}

// Commit acknowledges the Kafka message that carried the event. Call it once
// the object has been fully processed.
func (o *FetchedObject[T]) Commit(ctx context.Context) error {
	if o.commit == nil {
		return nil
	}
	return o.commit(ctx, o.msg)
}
