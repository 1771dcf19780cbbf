package kafkaclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaReader defines the interface for a Kafka message reader.
// This allows for easy mocking in unit tests.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads messages in a background loop and hands them out on a
// channel. Offsets are committed explicitly through CommitOffset.
type KafkaConsumer struct {
	reader KafkaReader
	logger *slog.Logger
	// closed on Stop
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	// unbuffered; the consumer loop blocks until the message is taken
	messageChan chan kafka.Message
	// pause after a read error
	backoff time.Duration
}

// NewKafkaConsumer creates a consumer for topic in group groupID.
func NewKafkaConsumer(topic, groupID string, brokers []string) (*KafkaConsumer, error) {
	if topic == "" || groupID == "" || len(brokers) == 0 {
		return nil, errors.New("kafka consumer needs a topic, a group id and at least one broker")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
		// Disable auto-commit to manually control offset committing.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newConsumer(reader), nil
}

func newConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		logger:      slog.Default().With("component", "kafka-consumer"),
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
		backoff:     time.Second,
	}
}

func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messageChan
}

func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	kc.logger.Debug("committing offset", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the Kafka message consumption loop in a separate goroutine.
// The message channel is closed when the loop exits.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		kc.logger.Info("starting consumer loop")
		for {
			select {
			case <-ctx.Done():
				kc.logger.Info("context canceled, stopping consumer loop")
				return
			case <-kc.doneChan:
				kc.logger.Info("shutdown signal received, stopping consumer loop")
				return
			default:
			}

			msg, err := kc.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				kc.logger.Warn("error reading message", "error", err)
				select {
				case <-time.After(kc.backoff):
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
				continue
			}

			select {
			case kc.messageChan <- msg:
				kc.logger.Debug("message received", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			case <-ctx.Done():
				return
			case <-kc.doneChan:
				return
			}
		}
	}()
}

// Stop gracefully shuts down the Kafka consumer. It is safe to call twice.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		close(kc.doneChan)
		if err := kc.reader.Close(); err != nil {
			kc.logger.Warn("failed to close kafka reader", "error", err)
		}
		kc.wg.Wait()
		kc.logger.Info("kafka consumer stopped")
	})
}
