package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"

	"jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/utils/platformerrors"
)

const (
	chatMessagesPath      = "/chat-messages"
	defaultRequestTimeout = 120 * time.Second
	maxErrorBodyBytes     = 64 * 1024
)

// Config points the client at the workflow service.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds blocking calls. Streams are bounded by the relay idle timeout instead.
	Timeout time.Duration
}

// Client talks to the workflow service chat endpoint.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewClient builds a Client on top of a resty client.
func NewClient(client *resty.Client, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
	}
}

// upstreamError is the error body returned by the workflow service.
type upstreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type blockingEnvelope struct {
	ConversationID string `json:"conversation_id"`
}

// SendBlocking posts a blocking request and returns the answer body untouched.
func (c *Client) SendBlocking(ctx context.Context, req chat.WorkflowRequest) (*chat.BlockingCompletion, error) {
	req.ResponseMode = chat.ResponseModeBlocking

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.prepareRequest(ctx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post(c.endpoint(chatMessagesPath))
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp)
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewUpstreamError(ctx, platformerrors.LayerInfrastructure, http.StatusBadGateway, "Failed to process chat request", "empty response body", nil, "7a3c9e51-2b8d-4f06-9c1e-4d5a6b7c8e90")
	}
	defer resp.RawResponse.Body.Close()

	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	var envelope blockingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, platformerrors.NewUpstreamError(ctx, platformerrors.LayerInfrastructure, http.StatusBadGateway, "Failed to process chat request", "workflow returned a non JSON body", err, "e4f1a2b3-5c6d-4e7f-8a9b-0c1d2e3f4a5b")
	}

	contentType := resp.RawResponse.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	return &chat.BlockingCompletion{
		Body:           body,
		ContentType:    contentType,
		ConversationID: envelope.ConversationID,
	}, nil
}

// OpenStream posts a streaming request and hands back the raw event stream.
// The caller owns the returned body.
func (c *Client) OpenStream(ctx context.Context, req chat.WorkflowRequest) (io.ReadCloser, error) {
	req.ResponseMode = chat.ResponseModeStreaming

	resp, err := c.prepareRequest(ctx).
		SetBody(req).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Accept-Encoding", "identity").
		SetDoNotParseResponse(true).
		Post(c.endpoint(chatMessagesPath))
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp)
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewUpstreamError(ctx, platformerrors.LayerInfrastructure, http.StatusBadGateway, "Failed to process chat request", "empty response body", nil, "1b3ab461-dbf9-4034-8abb-dfc6ea8486c5")
	}

	return resp.RawResponse.Body, nil
}

func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if c.apiKey != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	return req
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return platformerrors.NewUpstreamError(ctx, platformerrors.LayerInfrastructure, http.StatusGatewayTimeout, "Failed to process chat request", "workflow request timed out", err, "9d8c7b6a-5e4f-4a3b-8c2d-1e0f9a8b7c6d")
	}
	return platformerrors.NewUpstreamError(ctx, platformerrors.LayerInfrastructure, 0, "Failed to process chat request", err.Error(), err, "3476dd55-5fc0-4653-bd10-665895ecc099")
}

func (c *Client) errorFromResponse(ctx context.Context, resp *resty.Response) error {
	status := resp.StatusCode()
	details := http.StatusText(status)

	if resp.RawResponse != nil && resp.RawResponse.Body != nil {
		defer resp.RawResponse.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.RawResponse.Body, maxErrorBodyBytes))
		if err == nil {
			details = errorDetails(body, details)
		}
	}

	upstreamErr := platformerrors.NewUpstreamError(ctx, platformerrors.LayerInfrastructure, status, "Failed to process chat request", details, nil, "a1f46e0d-4017-4411-ac05-987946c3066d")
	upstreamErr.Context["upstream_status"] = status
	return upstreamErr
}

func errorDetails(body []byte, fallback string) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fallback
	}
	var parsed upstreamError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != "" {
			return fmt.Sprintf("%s: %s", parsed.Code, parsed.Message)
		}
		return parsed.Message
	}
	return trimmed
}
