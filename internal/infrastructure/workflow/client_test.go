package workflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/utils/httpclients"
	"jan-server/services/chat-api/internal/utils/platformerrors"
)

func newTestClient(url string) *Client {
	return NewClient(httpclients.NewClient("workflow-test"), Config{BaseURL: url + "/", APIKey: "secret", Timeout: 5 * time.Second})
}

func sampleRequest() chat.WorkflowRequest {
	return chat.WorkflowRequest{
		Query: "hi",
		User:  "guest",
		Inputs: chat.WorkflowInputs{
			JobDescriptions: "Go engineer",
			LocalLanguage:   "English",
			CVFiles:         []chat.WorkflowFile{{Type: chat.FileTypeDocument, TransferMethod: chat.TransferMethodRemoteURL, URL: "https://files/cv.pdf"}},
		},
	}
}

func TestSendBlockingReturnsBodyVerbatim(t *testing.T) {
	const answer = `{"event":"message","task_id":"t1","id":"m1","message_id":"m1","conversation_id":"abc123","mode":"chat","answer":"hello","metadata":{},"created_at":1}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat-messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "blocking", body["response_mode"])
		assert.Equal(t, "hi", body["query"])
		inputs := body["inputs"].(map[string]any)
		assert.Equal(t, "Go engineer", inputs["job_descriptions"])
		assert.NotContains(t, body, "conversation_id")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, answer)
	}))
	defer server.Close()

	completion, err := newTestClient(server.URL).SendBlocking(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, answer, string(completion.Body))
	assert.Equal(t, "abc123", completion.ConversationID)
	assert.Equal(t, "application/json", completion.ContentType)
}

func TestSendBlockingTranslatesUpstreamErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantDetails string
	}{
		{name: "structured error", status: http.StatusBadRequest, body: `{"code":"invalid_param","message":"query is required","status":400}`, wantStatus: http.StatusBadRequest, wantDetails: "invalid_param: query is required"},
		{name: "plain text", status: http.StatusServiceUnavailable, body: "maintenance", wantStatus: http.StatusServiceUnavailable, wantDetails: "maintenance"},
		{name: "empty body", status: http.StatusNotFound, body: "", wantStatus: http.StatusNotFound, wantDetails: "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).SendBlocking(context.Background(), sampleRequest())

			platformErr := platformerrors.GetPlatformError(err)
			require.NotNil(t, platformErr)
			assert.Equal(t, tt.wantStatus, platformErr.HTTPStatus())
			assert.Equal(t, tt.wantDetails, platformErr.Details)
			assert.Equal(t, "Failed to process chat request", platformErr.Message)
		})
	}
}

func TestSendBlockingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url).SendBlocking(context.Background(), sampleRequest())

	platformErr := platformerrors.GetPlatformError(err)
	require.NotNil(t, platformErr)
	assert.Equal(t, http.StatusInternalServerError, platformErr.HTTPStatus())
	assert.NotEmpty(t, platformErr.Details)
}

func TestOpenStreamReturnsRawBody(t *testing.T) {
	const frames = "data: {\"event\":\"message\",\"answer\":\"Hi\"}\n\ndata: {\"event\":\"message_end\",\"conversation_id\":\"xyz\"}\n\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "streaming", body["response_mode"])
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, frames)
	}))
	defer server.Close()

	stream, err := newTestClient(server.URL).OpenStream(context.Background(), sampleRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, frames, string(got))
}

func TestOpenStreamUpstreamRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"unauthorized","message":"Access token is invalid","status":401}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).OpenStream(context.Background(), sampleRequest())

	platformErr := platformerrors.GetPlatformError(err)
	require.NotNil(t, platformErr)
	assert.Equal(t, http.StatusUnauthorized, platformErr.HTTPStatus())
	assert.Equal(t, "unauthorized: Access token is invalid", platformErr.Details)
}
