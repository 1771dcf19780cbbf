package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gptenrich/pkg/gpt"
)

type memStore struct {
	data   map[string]string
	getErr error
	ttls   map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingGenerator struct {
	calls int
	err   error
}

func (c *countingGenerator) Generate(_ context.Context, r gpt.Request) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return `{"generation":"` + r.Text + `"}`, nil
}

func TestGenerator_HitsAfterFirstCall(t *testing.T) {
	next := &countingGenerator{}
	store := newMemStore()
	g := Wrap(next, store, "openedai", time.Hour)

	req := gpt.Request{Text: "hello"}
	for i := 0; i < 3; i++ {
		got, err := g.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, `{"generation":"hello"}`, got)
	}
	assert.Equal(t, 1, next.calls)

	_, err := g.Generate(context.Background(), gpt.Request{Text: "hello", Task: "Translate"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)

	for _, ttl := range store.ttls {
		assert.Equal(t, time.Hour, ttl)
	}
}

type sequenceGenerator struct{ calls int }

func (s *sequenceGenerator) Generate(context.Context, gpt.Request) (string, error) {
	s.calls++
	return fmt.Sprintf(`{"generation":"sample %d"}`, s.calls), nil
}

func TestGenerator_BypassesNonDeterministicRequests(t *testing.T) {
	tests := []struct {
		name string
		req  gpt.Request
	}{
		{"output mode", gpt.Request{Examples: []gpt.Example{{Output: "elephant"}}, Temperature: 0.8}},
		{"output mode at zero temperature", gpt.Request{Examples: []gpt.Example{{Output: "elephant"}}}},
		{"sampled text", gpt.Request{Text: "hello", Temperature: 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &sequenceGenerator{}
			store := newMemStore()
			g := Wrap(next, store, "openedai", time.Hour)

			var got []string
			for range 3 {
				out, err := g.Generate(context.Background(), tt.req)
				require.NoError(t, err)
				got = append(got, out)
			}
			assert.Equal(t, 3, next.calls)
			assert.Equal(t, []string{
				`{"generation":"sample 1"}`,
				`{"generation":"sample 2"}`,
				`{"generation":"sample 3"}`,
			}, got)
			assert.Empty(t, store.data)
		})
	}
}

func TestGenerator_ErrorsAreNotCached(t *testing.T) {
	next := &countingGenerator{err: &gpt.APIError{Engine: "OpenedAI", StatusCode: 500}}
	store := newMemStore()
	g := Wrap(next, store, "openedai", time.Hour)

	_, err := g.Generate(context.Background(), gpt.Request{Text: "x"})
	assert.ErrorIs(t, err, gpt.ErrAPI)
	assert.Empty(t, store.data)
}

func TestGenerator_RedisDownFallsThrough(t *testing.T) {
	next := &countingGenerator{}
	store := newMemStore()
	store.getErr = errors.New("dial tcp: connection refused")
	g := Wrap(next, store, "openedai", time.Hour)

	got, err := g.Generate(context.Background(), gpt.Request{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"generation":"x"}`, got)
	assert.Equal(t, 1, next.calls)
}
