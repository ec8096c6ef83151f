package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"encore/internal/config"
	"encore/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisPublisher_DeliversToSubscriber(t *testing.T) {
	rdb := newRedis(t)
	pub := NewRedisPublisher(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type received struct {
		subject string
		payload []byte
	}
	got := make(chan received, 1)
	require.NoError(t, pub.Subscribe(ctx, func(subject string, payload []byte) {
		got <- received{subject, payload}
	}))

	Emit(ctx, pub, SubjectPostCreated, PostCreated{PostID: 7, ProfileID: 3})

	select {
	case r := <-got:
		assert.Equal(t, SubjectPostCreated, r.subject)
		var evt PostCreated
		require.NoError(t, json.Unmarshal(r.payload, &evt))
		assert.Equal(t, uint(7), evt.PostID)
		assert.Equal(t, uint(3), evt.ProfileID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisPublisher_NilClientDrops(t *testing.T) {
	pub := NewRedisPublisher(nil)
	assert.NoError(t, pub.Publish(context.Background(), SubjectMediaReady, []byte("{}")))
	assert.NoError(t, pub.Subscribe(context.Background(), func(string, []byte) {}))
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, string, []byte) error {
	f.calls++
	return errors.New("bus down")
}
func (f *failingPublisher) Close() error { return nil }

func TestEmit_FailureIsCountedNotReturned(t *testing.T) {
	before := testutil.ToFloat64(observability.EventsPublished.WithLabelValues(SubjectMessageCreated, "error"))
	p := &failingPublisher{}

	Emit(context.Background(), p, SubjectMessageCreated, MessageCreated{MessageID: 1})

	assert.Equal(t, 1, p.calls)
	after := testutil.ToFloat64(observability.EventsPublished.WithLabelValues(SubjectMessageCreated, "error"))
	assert.Equal(t, before+1, after)
}

func TestEmit_NilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, SubjectPostCreated, PostCreated{})
	})
}

func TestNew_SelectsBackend(t *testing.T) {
	p, err := New(&config.Config{EventsBackend: "none"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	p, err = New(&config.Config{EventsBackend: "redis"}, newRedis(t))
	require.NoError(t, err)
	assert.IsType(t, &RedisPublisher{}, p)

	_, err = New(&config.Config{EventsBackend: "kafka"}, nil)
	assert.Error(t, err)
}
