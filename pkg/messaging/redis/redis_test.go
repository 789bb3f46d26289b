package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	err       error
	published map[string][][]byte
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	if f.published == nil {
		f.published = make(map[string][][]byte)
	}
	f.published[channel] = append(f.published[channel], message.([]byte))
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return nil
}

func (f *fakeClient) Close() error { return nil }

func TestPublishMarshalsMessage(t *testing.T) {
	fake := &fakeClient{}
	nop := zerolog.Nop()
	b := newBroker(fake, Config{}, &nop)

	err := b.Publish(context.Background(), "notifications", map[string]string{"message": "hello"})
	require.NoError(t, err)
	require.Len(t, fake.published["notifications"], 1)

	var got map[string]string
	require.NoError(t, json.Unmarshal(fake.published["notifications"][0], &got))
	assert.Equal(t, "hello", got["message"])
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fake := &fakeClient{err: errors.New("connection refused")}
	nop := zerolog.Nop()
	b := newBroker(fake, Config{FailureThreshold: 3, OpenTimeout: time.Hour}, &nop)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := b.Publish(ctx, "notifications", "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrBrokerOpen)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	fake.err = nil
	err := b.Publish(ctx, "notifications", "x")
	assert.ErrorIs(t, err, ErrBrokerOpen)
	assert.Empty(t, fake.published)
}
