package chat

import (
	"context"
	"io"
)

// Workflow request constants.
const (
	FileTypeDocument        = "document"
	TransferMethodRemoteURL = "remote_url"
)

// WorkflowFile references a document the workflow downloads itself.
type WorkflowFile struct {
	Type           string `json:"type"`
	TransferMethod string `json:"transfer_method"`
	URL            string `json:"url"`
}

// WorkflowInputs are the app variables of the workflow.
type WorkflowInputs struct {
	JobDescriptions string         `json:"job_descriptions"`
	LocalLanguage   string         `json:"local_language"`
	CVFiles         []WorkflowFile `json:"cv_files"`
	FnCall          string         `json:"fn_call,omitempty"`
}

// WorkflowRequest is the body posted to the workflow chat endpoint.
type WorkflowRequest struct {
	Query          string         `json:"query"`
	User           string         `json:"user"`
	ResponseMode   ResponseMode   `json:"response_mode"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Inputs         WorkflowInputs `json:"inputs"`
}

// BlockingCompletion is the verbatim blocking answer plus the fields the relay inspects.
type BlockingCompletion struct {
	Body           []byte
	ContentType    string
	ConversationID string
}

// WorkflowClient dispatches a request to the upstream workflow service.
// Failures are returned as platform errors carrying the upstream status and message.
type WorkflowClient interface {
	SendBlocking(ctx context.Context, req WorkflowRequest) (*BlockingCompletion, error)
	OpenStream(ctx context.Context, req WorkflowRequest) (io.ReadCloser, error)
}
