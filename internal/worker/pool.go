package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/chat-api/internal/domain/chat"
)

const stopTimeout = 30 * time.Second

// Config contains worker pool configuration.
type Config struct {
	WorkerCount int
	QueueSize   int
}

type job struct {
	ctx    context.Context
	record chat.ConversationRecord
}

// Pool records conversations in the background so the HTTP response never
// waits on persistence. It implements chat.Recorder.
type Pool struct {
	recorder    chat.Recorder
	jobs        chan job
	workerCount int
	hook        func(chat.BootstrapOutcome)
	log         zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a new worker pool in front of recorder.
func NewPool(recorder chat.Recorder, cfg Config, hook func(chat.BootstrapOutcome), log zerolog.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if hook == nil {
		hook = func(chat.BootstrapOutcome) {}
	}
	return &Pool{
		recorder:    recorder,
		jobs:        make(chan job, cfg.QueueSize),
		workerCount: cfg.WorkerCount,
		hook:        hook,
		log:         log.With().Str("component", "bootstrap-pool").Logger(),
	}
}

// Start launches the workers. They exit once Stop drains the queue.
func (p *Pool) Start(ctx context.Context) error {
	p.log.Info().Int("worker_count", p.workerCount).Int("queue_size", cap(p.jobs)).Msg("starting bootstrap pool")

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(id)
		}(i + 1)
	}
	return nil
}

func (p *Pool) run(id int) {
	log := p.log.With().Int("worker_id", id).Logger()
	log.Debug().Msg("worker started")

	for j := range p.jobs {
		p.recorder.Record(j.ctx, j.record)
	}

	log.Debug().Msg("worker stopped")
}

// Record enqueues the record. A full queue drops it with a warning.
func (p *Pool) Record(ctx context.Context, record chat.ConversationRecord) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.drop(record, "pool stopped")
		return
	}

	select {
	case p.jobs <- job{ctx: context.WithoutCancel(ctx), record: record}:
		p.hook(chat.BootstrapQueued)
	default:
		p.drop(record, "queue full")
	}
}

func (p *Pool) drop(record chat.ConversationRecord, reason string) {
	p.log.Warn().
		Int64("context_id", record.ContextID).
		Str("conversation_id", record.UpstreamConversationID).
		Str("reason", reason).
		Msg("conversation record dropped")
	p.hook(chat.BootstrapDropped)
}

// Depth returns the number of queued records.
func (p *Pool) Depth() int {
	return len(p.jobs)
}

// Stop refuses new records, drains the queue and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.log.Info().Msg("stopping bootstrap pool")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(stopTimeout):
		p.log.Warn().Int("pending", len(p.jobs)).Msg("bootstrap pool shutdown timed out")
	}
}
