package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chat-api/internal/domain/chat"
)

type recordingRecorder struct {
	mu      sync.Mutex
	records []chat.ConversationRecord
	block   chan struct{}
}

func (r *recordingRecorder) Record(ctx context.Context, record chat.ConversationRecord) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func (r *recordingRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type outcomeCounter struct {
	mu     sync.Mutex
	counts map[chat.BootstrapOutcome]int
}

func (c *outcomeCounter) observe(o chat.BootstrapOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[chat.BootstrapOutcome]int)
	}
	c.counts[o]++
}

func (c *outcomeCounter) get(o chat.BootstrapOutcome) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[o]
}

func TestPoolDrainsQueueOnStop(t *testing.T) {
	rec := &recordingRecorder{}
	counter := &outcomeCounter{}
	pool := NewPool(rec, Config{WorkerCount: 2, QueueSize: 16}, counter.observe, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 10; i++ {
		pool.Record(context.Background(), chat.ConversationRecord{ContextID: int64(i + 1), UpstreamConversationID: "c"})
	}
	pool.Stop()

	assert.Equal(t, 10, rec.len())
	assert.Equal(t, 10, counter.get(chat.BootstrapQueued))
	assert.Zero(t, counter.get(chat.BootstrapDropped))
}

func TestPoolDropsWhenFull(t *testing.T) {
	rec := &recordingRecorder{block: make(chan struct{})}
	counter := &outcomeCounter{}
	pool := NewPool(rec, Config{WorkerCount: 1, QueueSize: 1}, counter.observe, zerolog.Nop())

	// workers not started yet so the queue fills immediately
	pool.Record(context.Background(), chat.ConversationRecord{UpstreamConversationID: "a"})
	pool.Record(context.Background(), chat.ConversationRecord{UpstreamConversationID: "b"})

	assert.Equal(t, 1, counter.get(chat.BootstrapQueued))
	assert.Equal(t, 1, counter.get(chat.BootstrapDropped))
	assert.Equal(t, 1, pool.Depth())

	require.NoError(t, pool.Start(context.Background()))
	close(rec.block)
	pool.Stop()
	assert.Equal(t, 1, rec.len())
}

func TestPoolRecordAfterStopIsDropped(t *testing.T) {
	rec := &recordingRecorder{}
	counter := &outcomeCounter{}
	pool := NewPool(rec, Config{WorkerCount: 1, QueueSize: 4}, counter.observe, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))
	pool.Stop()
	pool.Stop()

	pool.Record(context.Background(), chat.ConversationRecord{UpstreamConversationID: "late"})

	assert.Equal(t, 1, counter.get(chat.BootstrapDropped))
	assert.Zero(t, rec.len())
}

func TestPoolDetachesCallerCancellation(t *testing.T) {
	var got context.Context
	done := make(chan struct{})
	rec := recorderFunc(func(ctx context.Context, _ chat.ConversationRecord) {
		got = ctx
		close(done)
	})
	pool := NewPool(rec, Config{WorkerCount: 1, QueueSize: 1}, nil, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	pool.Record(ctx, chat.ConversationRecord{UpstreamConversationID: "x"})
	cancel()
	<-done
	pool.Stop()

	assert.NoError(t, got.Err())
}

type recorderFunc func(ctx context.Context, record chat.ConversationRecord)

func (f recorderFunc) Record(ctx context.Context, record chat.ConversationRecord) {
	f(ctx, record)
}
