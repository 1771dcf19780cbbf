// Package service turns storage notifications into loaded objects. The
// Iterator consumes MinIO bucket events from a message source (Kafka via
// pkg/kafkaclient) and loads each referenced object with a LoaderFunc.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7/pkg/notification"
)

// Iterator yields one FetchedObject per object-created record. It does not
// manage the lifecycle of the underlying message source.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	skip        func(bucket, key string) bool
	logger      *slog.Logger
}

type IteratorOption[T any] func(*Iterator[T])

// WithSkip drops records for which skip returns true, e.g. the service's own
// output objects.
func WithSkip[T any](skip func(bucket, key string) bool) IteratorOption[T] {
	return func(it *Iterator[T]) { it.skip = skip }
}

func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T], opts ...IteratorOption[T]) *Iterator[T] {
	it := &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		skip:        func(string, string) bool { return false },
		logger:      slog.Default().With("component", "iterator"),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Objects starts a goroutine that decodes each message as a notification.Info,
// loads every object-created record and emits it. Undecodable messages and
// failed loads are logged and skipped. Messages that yield no object are
// committed right away; the others are committed by the receiver through
// FetchedObject.Commit. The channel closes when the message source closes or
// ctx is done.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var info notification.Info
			if err := json.Unmarshal(msg.Value, &info); err != nil {
				it.logger.Warn("error unmarshalling notification", "offset", msg.Offset, "error", err)
				continue
			}

			emitted := 0
			for _, record := range info.Records {
				if !strings.HasPrefix(record.EventName, "s3:ObjectCreated:") {
					continue
				}
				bucket := record.S3.Bucket.Name
				key, err := url.QueryUnescape(record.S3.Object.Key)
				if err != nil {
					it.logger.Warn("error decoding object key", "key", record.S3.Object.Key, "error", err)
					continue
				}
				if it.skip(bucket, key) {
					continue
				}

				data, err := it.loader(ctx, bucket, key)
				if err != nil {
					it.logger.Error("error loading object", "bucket", bucket, "key", key, "error", err)
					continue
				}

				obj := &FetchedObject[T]{
					Data:   data,
					Bucket: bucket,
					Key:    key,
					Event:  record,
					msg:    msg,
					commit: it.msgIterator.CommitOffset,
				}
				select {
				case out <- obj:
					emitted++
				case <-ctx.Done():
					return
				}
			}

			if emitted == 0 {
				if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
					it.logger.Warn("failed to commit offset", "error", err)
				}
			}
		}
	}()
	return out
}
