package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetConsumerMetricsRegisterer(prometheus.NewRegistry())
}

type countingHandler struct {
	calls int
	err   error
	panic bool
	trace string
}

func (h *countingHandler) Topic() string { return "exodetect.analyze.requests" }

func (h *countingHandler) Handle(ctx context.Context, _ []byte) error {
	h.calls++
	h.trace = TraceID(ctx)
	if h.panic {
		panic("boom")
	}
	return h.err
}

func newTestConsumer(t *testing.T, h MessageHandler) *Consumer {
	t.Helper()
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)
	c.RegisterHandler(h)
	return c
}

func TestNewConsumer_RequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
}

func TestConsumer_HandlesOnceWithoutRetry(t *testing.T) {
	h := &countingHandler{err: errors.New("run failed")}
	c := newTestConsumer(t, h)

	var hookErr error
	c.WithConsumerHook(HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) {
		hookErr = err
	}})

	c.process(&message{topic: h.Topic(), km: kafka.Message{Value: []byte(`{"tic_id":"1"}`)}})
	assert.Equal(t, 1, h.calls)
	assert.EqualError(t, hookErr, "run failed")
}

func TestConsumer_RecoversHandlerPanic(t *testing.T) {
	h := &countingHandler{panic: true}
	c := newTestConsumer(t, h)

	assert.NotPanics(t, func() {
		c.process(&message{topic: h.Topic(), km: kafka.Message{}})
	})
	assert.Equal(t, 1, h.calls)
}

func TestTraceHook(t *testing.T) {
	h := &countingHandler{}
	c := newTestConsumer(t, h)
	c.WithConsumerHook(TraceHook())

	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc-123")}}}
	c.process(&message{topic: h.Topic(), km: km})
	assert.Equal(t, "abc-123", h.trace)
}

func TestConsumer_StartWithoutHandlers(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)
	assert.Error(t, c.Start())
}

type offsetRecorder struct {
	mu   sync.Mutex
	seen map[int][]int64
}

func (h *offsetRecorder) Topic() string { return "exodetect.analyze.requests" }

func (h *offsetRecorder) Handle(ctx context.Context, _ []byte) error {
	km, _ := ctx.Value(recordedMessageKey{}).(kafka.Message)
	// earlier offsets take longer, so a shared pool would finish them out of order
	time.Sleep(time.Duration(10-km.Offset%10) * time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[km.Partition] = append(h.seen[km.Partition], km.Offset)
	return nil
}

type recordedMessageKey struct{}

func TestWorkerIndex_StableAndInRange(t *testing.T) {
	for p := 0; p < 32; p++ {
		idx := workerIndex("exodetect.analyze.requests", p, 4)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 4)
		assert.Equal(t, idx, workerIndex("exodetect.analyze.requests", p, 4))
	}
	assert.Equal(t, 0, workerIndex("exodetect.analyze.requests", 7, 1))
}

func TestConsumer_HandlesPartitionInOffsetOrder(t *testing.T) {
	h := &offsetRecorder{seen: make(map[int][]int64)}
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerWorkers(4))
	require.NoError(t, err)
	c.RegisterHandler(h)
	c.WithConsumerHook(HookFuncs{Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
		return context.WithValue(ctx, recordedMessageKey{}, km), km, data, nil
	}})

	c.startWorkers()
	for off := int64(0); off < 10; off++ {
		for _, part := range []int{0, 1, 2} {
			require.True(t, c.dispatch(&message{topic: h.Topic(), km: kafka.Message{Partition: part, Offset: off}}))
		}
	}
	c.closeQueues()
	c.workWg.Wait()

	want := []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for _, part := range []int{0, 1, 2} {
		assert.Equal(t, want, h.seen[part], "partition %d", part)
	}
}
