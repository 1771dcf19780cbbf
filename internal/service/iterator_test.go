package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

type fakeSource struct {
	ch        chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func newFakeSource(msgs ...kafka.Message) *fakeSource {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return &fakeSource{ch: ch}
}

func (f *fakeSource) Messages() <-chan kafka.Message { return f.ch }

func (f *fakeSource) CommitOffset(_ context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msg.Offset)
	return nil
}

func eventMessage(t *testing.T, offset int64, eventName, bucket, key string) kafka.Message {
	t.Helper()
	var ev notification.Event
	ev.EventName = eventName
	ev.S3.Bucket.Name = bucket
	ev.S3.Object.Key = key
	value, err := json.Marshal(notification.Info{Records: []notification.Event{ev}})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Offset: offset, Value: value}
}

func TestIterator_Objects(t *testing.T) {
	src := newFakeSource(
		eventMessage(t, 0, "s3:ObjectCreated:Put", "incoming", "reviews%2F2024+q1.csv"),
		kafka.Message{Offset: 1, Value: []byte("not json")},
		eventMessage(t, 2, "s3:ObjectRemoved:Delete", "incoming", "gone.csv"),
		eventMessage(t, 3, "s3:ObjectCreated:Put", "incoming", "enriched/reviews.enriched.csv"),
		eventMessage(t, 4, "s3:ObjectCreated:Put", "incoming", "broken.csv"),
		eventMessage(t, 5, "s3:ObjectCreated:Put", "incoming", "products.csv"),
	)
	loader := func(_ context.Context, bucket, key string) (string, error) {
		if key == "broken.csv" {
			return "", errors.New("no such key")
		}
		return bucket + "/" + key, nil
	}
	skipOutputs := WithSkip[string](func(_, key string) bool {
		return len(key) >= 9 && key[:9] == "enriched/"
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []string
	for obj := range NewIterator[string](src, loader, skipOutputs).Objects(ctx) {
		got = append(got, obj.Data)
		if err := obj.Commit(ctx); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"incoming/reviews/2024 q1.csv", "incoming/products.csv"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("object %d = %q, want %q", i, got[i], want[i])
		}
	}

	// undecodable message (1) is never committed; the rest are
	wantCommitted := map[int64]bool{0: true, 2: true, 3: true, 4: true, 5: true}
	if len(src.committed) != len(wantCommitted) {
		t.Fatalf("committed %v", src.committed)
	}
	for _, off := range src.committed {
		if !wantCommitted[off] {
			t.Errorf("unexpected commit of offset %d", off)
		}
	}
}
