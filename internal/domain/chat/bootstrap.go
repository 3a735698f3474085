package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/chat-api/internal/utils/platformerrors"
)

const defaultBootstrapTimeout = 10 * time.Second

// BootstrapOutcome describes what happened to one conversation record.
type BootstrapOutcome string

const (
	BootstrapCreated   BootstrapOutcome = "created"
	BootstrapDuplicate BootstrapOutcome = "duplicate"
	BootstrapFailed    BootstrapOutcome = "failed"
	BootstrapQueued    BootstrapOutcome = "queued"
	BootstrapDropped   BootstrapOutcome = "dropped"
)

// ShouldBootstrap decides whether a response starts a new conversation that
// needs a record: the upstream revealed an id, the caller supplied none, and
// the call is not the side ranking call.
func ShouldBootstrap(req ChatRequest, upstreamConversationID, rankingFnCall string) bool {
	if strings.TrimSpace(upstreamConversationID) == "" {
		return false
	}
	if req.ConversationID != "" {
		return false
	}
	if rankingFnCall != "" && req.FnCall == rankingFnCall {
		return false
	}
	return true
}

// Recorder creates conversation records on a best-effort basis. Record never
// fails the caller and never retries.
type Recorder interface {
	Record(ctx context.Context, record ConversationRecord)
}

// BootstrapGuard claims an upstream conversation id so concurrent replicas
// create at most one record for it.
type BootstrapGuard interface {
	Claim(ctx context.Context, upstreamConversationID string) (bool, error)
}

// RecorderOption customizes a SyncRecorder.
type RecorderOption func(*SyncRecorder)

// WithGuard deduplicates records through guard.
func WithGuard(guard BootstrapGuard) RecorderOption {
	return func(r *SyncRecorder) {
		r.guard = guard
	}
}

// WithTimeout bounds each repository call.
func WithTimeout(timeout time.Duration) RecorderOption {
	return func(r *SyncRecorder) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithOutcomeHook observes every outcome, typically for metrics.
func WithOutcomeHook(hook func(BootstrapOutcome)) RecorderOption {
	return func(r *SyncRecorder) {
		if hook != nil {
			r.hook = hook
		}
	}
}

// SyncRecorder writes the record before returning. The caller context's
// cancellation is ignored so a disconnect cannot abort the write.
type SyncRecorder struct {
	repo    ConversationRepository
	guard   BootstrapGuard
	timeout time.Duration
	hook    func(BootstrapOutcome)
	log     zerolog.Logger
}

// NewRecorder builds a SyncRecorder.
func NewRecorder(repo ConversationRepository, log zerolog.Logger, opts ...RecorderOption) *SyncRecorder {
	r := &SyncRecorder{
		repo:    repo,
		timeout: defaultBootstrapTimeout,
		hook:    func(BootstrapOutcome) {},
		log:     log.With().Str("component", "conversation-bootstrap").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements Recorder.
func (r *SyncRecorder) Record(ctx context.Context, record ConversationRecord) {
	r.hook(r.record(ctx, record))
}

func (r *SyncRecorder) record(ctx context.Context, record ConversationRecord) BootstrapOutcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	log := r.log.With().
		Str("request_id", platformerrors.RequestIDFromContext(ctx)).
		Int64("context_id", record.ContextID).
		Str("conversation_id", record.UpstreamConversationID).
		Logger()

	if r.guard != nil {
		claimed, err := r.guard.Claim(ctx, record.UpstreamConversationID)
		if err != nil {
			log.Warn().Err(err).Msg("bootstrap guard unavailable, creating record without it")
		} else if !claimed {
			log.Debug().Msg("conversation record already claimed")
			return BootstrapDuplicate
		}
	}

	if err := r.repo.Create(ctx, &record); err != nil {
		log.Warn().Err(err).Msg("failed to persist conversation record")
		return BootstrapFailed
	}

	log.Info().Int64("record_id", record.ID).Str("title", record.Title).Msg("conversation record created")
	return BootstrapCreated
}
