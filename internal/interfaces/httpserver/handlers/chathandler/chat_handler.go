package chathandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/domain/stream"
	"jan-server/services/chat-api/internal/infrastructure/auth"
	"jan-server/services/chat-api/internal/infrastructure/metrics"
	"jan-server/services/chat-api/internal/infrastructure/observability"
	"jan-server/services/chat-api/internal/interfaces/httpserver/middlewares"
	"jan-server/services/chat-api/internal/interfaces/httpserver/requests"
	"jan-server/services/chat-api/internal/interfaces/httpserver/responses"
	"jan-server/services/chat-api/internal/utils/platformerrors"
)

// Stream outcome labels.
const (
	streamClosed        = "closed"
	streamCancelled     = "cancelled"
	streamIdleTimeout   = "idle_timeout"
	streamFrameTooLarge = "frame_too_large"
	streamDownstream    = "downstream_error"
	streamUpstream      = "upstream_error"
)

// ChatHandler relays chat requests to the workflow service.
type ChatHandler struct {
	service chat.Service
	relay   *stream.Relay
	log     zerolog.Logger
}

// NewChatHandler wires the chat handler.
func NewChatHandler(service chat.Service, relay *stream.Relay, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		relay:   relay,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

// SendChat handles POST /v1/chat in blocking and streaming mode.
func (h *ChatHandler) SendChat(c *gin.Context) {
	var body requests.ChatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		platformerrors.WriteValidationError(c, requests.BindingMessage(err))
		return
	}

	req := body.ToDomain(auth.CallerID(c))
	c.Set(middlewares.ModeKey, string(req.ResponseMode))

	ctx, span := observability.StartSpan(c.Request.Context(), "chat.send",
		trace.WithAttributes(
			attribute.String("chat.response_mode", string(req.ResponseMode)),
			attribute.Int64("chat.context_id", req.ContextID),
			attribute.Bool("chat.conversation_supplied", req.ConversationID != ""),
		),
	)
	defer span.End()

	log := h.log.With().
		Str("request_id", middlewares.RequestIDFromContext(c)).
		Int64("context_id", req.ContextID).
		Str("mode", string(req.ResponseMode)).
		Logger()

	exchange, err := h.service.Prepare(ctx, req)
	if err != nil {
		observability.RecordError(ctx, err)
		platformerrors.WriteError(c, err, log)
		return
	}

	if req.ResponseMode == chat.ResponseModeBlocking {
		h.sendBlocking(c, ctx, exchange, log)
		return
	}
	h.sendStreaming(c, ctx, exchange, log)
}

func (h *ChatHandler) sendBlocking(c *gin.Context, ctx context.Context, exchange *chat.Exchange, log zerolog.Logger) {
	completion, err := h.service.SendBlocking(ctx, exchange)
	if err != nil {
		h.writeUpstreamError(c, ctx, exchange, err, log)
		return
	}

	observability.AddSpanAttributes(ctx, attribute.String("chat.conversation_id", completion.ConversationID))
	contentType := completion.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(http.StatusOK, contentType, completion.Body)
}

func (h *ChatHandler) sendStreaming(c *gin.Context, ctx context.Context, exchange *chat.Exchange, log zerolog.Logger) {
	upstream, err := h.service.OpenStream(ctx, exchange)
	if err != nil {
		h.writeUpstreamError(c, ctx, exchange, err, log)
		return
	}

	if _, ok := middlewares.PrepareSSE(c); !ok {
		_ = upstream.Close()
		h.service.FinishStream(ctx, exchange, "", errors.New("response writer does not support flushing"))
		platformerrors.WriteInternalError(c, "streaming not supported")
		return
	}
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	result, streamErr := h.relay.WithLogger(log).Pump(ctx, upstream, c.Writer)
	h.service.FinishStream(ctx, exchange, result.ConversationID, streamErr)

	state := streamState(streamErr)
	metrics.RecordStream(state, result.Frames, result.Bytes, result.ParseWarnings, result.TrailingBytes > 0)
	observability.AddSpanAttributes(ctx,
		attribute.String("chat.stream_state", state),
		attribute.Int("chat.stream_frames", result.Frames),
		attribute.Int64("chat.stream_bytes", result.Bytes),
		attribute.String("chat.conversation_id", result.ConversationID),
	)

	event := log.Info()
	if streamErr != nil {
		event = log.Warn().Err(streamErr)
	}
	event.
		Str("stream_state", state).
		Int("frames", result.Frames).
		Int64("bytes", result.Bytes).
		Int("parse_warnings", result.ParseWarnings).
		Int("error_events", result.ErrorEvents).
		Int("trailing_bytes", result.TrailingBytes).
		Str("conversation_id", result.ConversationID).
		Msg("stream finished")

	if streamErr == nil {
		return
	}
	if chat.IsStreamCancelled(streamErr) {
		// the client is gone, there is nobody left to signal
		c.Abort()
		return
	}
	observability.RecordError(ctx, streamErr)
	observability.SetSpanStatus(ctx, codes.Error, state)
	middlewares.AbortStream(c)
}

func (h *ChatHandler) writeUpstreamError(c *gin.Context, ctx context.Context, exchange *chat.Exchange, err error, log zerolog.Logger) {
	observability.RecordError(ctx, err)

	status := http.StatusInternalServerError
	if platformErr := platformerrors.GetPlatformError(err); platformErr != nil {
		status = platformErr.HTTPStatus()
	}
	metrics.RecordUpstreamError(string(exchange.Request.ResponseMode), strconv.Itoa(status))

	platformerrors.WriteError(c, err, log)
}

// ListChats handles GET /v1/contexts/:contextId/chats.
func (h *ChatHandler) ListChats(c *gin.Context) {
	contextID, err := strconv.ParseInt(c.Param("contextId"), 10, 64)
	if err != nil || contextID <= 0 {
		platformerrors.WriteValidationError(c, "contextId must be a positive integer")
		return
	}

	log := h.log.With().
		Str("request_id", middlewares.RequestIDFromContext(c)).
		Int64("context_id", contextID).
		Logger()

	records, err := h.service.ListConversations(c.Request.Context(), contextID)
	if err != nil {
		platformerrors.WriteError(c, err, log)
		return
	}
	c.JSON(http.StatusOK, responses.NewChatListResponse(records))
}

func streamState(err error) string {
	switch {
	case err == nil:
		return streamClosed
	case errors.Is(err, context.Canceled):
		return streamCancelled
	case errors.Is(err, stream.ErrIdleTimeout):
		return streamIdleTimeout
	case errors.Is(err, stream.ErrFrameTooLarge):
		return streamFrameTooLarge
	case errors.Is(err, stream.ErrDownstream):
		return streamDownstream
	default:
		return streamUpstream
	}
}
