package chat

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/chat-api/internal/utils/platformerrors"
)

// Options holds the defaults applied while preparing a request.
type Options struct {
	DefaultTitle    string
	RankingFnCall   string
	DefaultLanguage string
	DefaultCallerID string
}

// Service describes the chat relay use cases.
type Service interface {
	// Prepare validates req, resolves its context and builds the workflow payload.
	Prepare(ctx context.Context, req ChatRequest) (*Exchange, error)
	// SendBlocking dispatches the exchange and waits for the full answer.
	SendBlocking(ctx context.Context, exchange *Exchange) (*BlockingCompletion, error)
	// OpenStream dispatches the exchange and returns the upstream event stream.
	OpenStream(ctx context.Context, exchange *Exchange) (io.ReadCloser, error)
	// FinishStream records the stream's terminal state and bootstraps the conversation.
	FinishStream(ctx context.Context, exchange *Exchange, conversationID string, streamErr error)
	// ListConversations returns the conversation records of a context, newest first.
	ListConversations(ctx context.Context, contextID int64) ([]*ConversationRecord, error)
}

type service struct {
	contexts      ContextRepository
	conversations ConversationRepository
	workflow      WorkflowClient
	files         FileURLResolver
	recorder      Recorder
	opts          Options
	log           zerolog.Logger
}

// NewService wires the chat service with its collaborators.
func NewService(
	contexts ContextRepository,
	conversations ConversationRepository,
	workflow WorkflowClient,
	files FileURLResolver,
	recorder Recorder,
	opts Options,
	log zerolog.Logger,
) Service {
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = "New Chat"
	}
	if opts.DefaultCallerID == "" {
		opts.DefaultCallerID = "guest"
	}
	return &service{
		contexts:      contexts,
		conversations: conversations,
		workflow:      workflow,
		files:         files,
		recorder:      recorder,
		opts:          opts,
		log:           log.With().Str("component", "chat-service").Logger(),
	}
}

// ValidateRequest checks the fields required before any upstream work.
func ValidateRequest(ctx context.Context, req ChatRequest) error {
	switch {
	case strings.TrimSpace(req.Query) == "":
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "query is required", nil, "0f5c1e0a-3c55-4d8e-9a43-7b0f2f5b8f11")
	case req.ResponseMode == "":
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "responseMode is required", nil, "5d0c8f56-0a0e-4a39-8d6f-1e7f7a2b3c40")
	case !req.ResponseMode.Valid():
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "responseMode must be one of: streaming, blocking", nil, "b7e4a9d2-6f13-4c8b-a1e5-93d2c7f04a66")
	case req.ContextID <= 0:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "contextId must be a positive integer", nil, "e2a6b1c9-8d47-4f20-b3a8-5c9e1d7f2b03")
	}
	return nil
}

func (s *service) Prepare(ctx context.Context, req ChatRequest) (*Exchange, error) {
	if err := ValidateRequest(ctx, req); err != nil {
		return nil, err
	}

	analysisContext, err := s.findContext(ctx, req.ContextID)
	if err != nil {
		return nil, err
	}

	payload, err := s.buildPayload(ctx, req, analysisContext)
	if err != nil {
		return nil, err
	}

	return newExchange(req, analysisContext, payload), nil
}

func (s *service) SendBlocking(ctx context.Context, exchange *Exchange) (*BlockingCompletion, error) {
	if err := exchange.advance(StateDispatched); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "dispatch blocking chat")
	}

	completion, err := s.workflow.SendBlocking(ctx, exchange.Payload)
	if err != nil {
		_ = exchange.advance(StateFailed)
		return nil, err
	}
	_ = exchange.advance(StateCompleted)

	s.bootstrap(ctx, exchange, completion.ConversationID)
	return completion, nil
}

func (s *service) OpenStream(ctx context.Context, exchange *Exchange) (io.ReadCloser, error) {
	if err := exchange.advance(StateDispatched); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "dispatch streaming chat")
	}

	body, err := s.workflow.OpenStream(ctx, exchange.Payload)
	if err != nil {
		_ = exchange.advance(StateFailed)
		return nil, err
	}
	_ = exchange.advance(StateEmitting)
	return body, nil
}

func (s *service) FinishStream(ctx context.Context, exchange *Exchange, conversationID string, streamErr error) {
	if streamErr != nil {
		_ = exchange.advance(StateErrored)
		if conversationID != "" {
			s.log.Warn().
				Err(streamErr).
				Int64("context_id", exchange.Request.ContextID).
				Str("conversation_id", conversationID).
				Msg("stream errored after revealing a conversation id, no record created")
		}
		return
	}

	_ = exchange.advance(StateClosed)
	s.bootstrap(ctx, exchange, conversationID)
}

func (s *service) ListConversations(ctx context.Context, contextID int64) ([]*ConversationRecord, error) {
	if contextID <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "contextId must be a positive integer", nil, "a4d9e3f1-27b6-4c5a-9e08-6f1b2c3d4e57")
	}
	if _, err := s.findContext(ctx, contextID); err != nil {
		return nil, err
	}

	records, err := s.conversations.ListByContext(ctx, contextID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list conversation records")
	}
	return records, nil
}

func (s *service) findContext(ctx context.Context, contextID int64) (*AnalysisContext, error) {
	analysisContext, err := s.contexts.FindByID(ctx, contextID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "Context not found", err, "c81f4b2e-9d3a-4e67-b5c0-2a8f6d1e9b74")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load analysis context")
	}
	if analysisContext == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "Context not found", nil, "3e9b7c5a-1f2d-4a86-8c04-d6e5f7a8b912")
	}
	return analysisContext, nil
}

func (s *service) buildPayload(ctx context.Context, req ChatRequest, analysisContext *AnalysisContext) (WorkflowRequest, error) {
	files := make([]WorkflowFile, 0, len(analysisContext.Documents))
	for _, doc := range analysisContext.Documents {
		path := strings.TrimSpace(doc.FilePath)
		if path == "" {
			continue
		}
		url, err := s.files.ResolveURL(ctx, path)
		if err != nil {
			return WorkflowRequest{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "resolve document url")
		}
		files = append(files, WorkflowFile{
			Type:           FileTypeDocument,
			TransferMethod: TransferMethodRemoteURL,
			URL:            url,
		})
	}

	language := strings.TrimSpace(analysisContext.LocalLanguage)
	if language == "" {
		language = s.opts.DefaultLanguage
	}

	user := strings.TrimSpace(req.CallerID)
	if user == "" {
		user = s.opts.DefaultCallerID
	}

	return WorkflowRequest{
		Query:          req.Query,
		User:           user,
		ResponseMode:   req.ResponseMode,
		ConversationID: req.ConversationID,
		Inputs: WorkflowInputs{
			JobDescriptions: analysisContext.JobDescription,
			LocalLanguage:   language,
			CVFiles:         files,
			FnCall:          req.FnCall,
		},
	}, nil
}

func (s *service) bootstrap(ctx context.Context, exchange *Exchange, conversationID string) {
	if !ShouldBootstrap(exchange.Request, conversationID, s.opts.RankingFnCall) {
		return
	}

	title := strings.TrimSpace(exchange.Request.Title)
	if title == "" {
		title = s.opts.DefaultTitle
	}

	s.recorder.Record(ctx, ConversationRecord{
		ContextID:              exchange.Request.ContextID,
		Title:                  title,
		UpstreamConversationID: conversationID,
	})
}

// IsStreamCancelled reports whether a stream ended because the caller went away.
func IsStreamCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
