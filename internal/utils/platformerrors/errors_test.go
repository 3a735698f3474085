package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	err := NewError(ctx, LayerDomain, ErrorTypeNotFound, "Context not found", nil, "")

	if err.RequestID != "req-1" {
		t.Fatalf("expected request id req-1, got %q", err.RequestID)
	}
	if err.UUID == "" {
		t.Fatal("expected generated uuid")
	}
	if err.HTTPStatus() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", err.HTTPStatus())
	}
}

func TestNewUpstreamErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   int
	}{
		{name: "upstream status kept", status: http.StatusBadRequest, want: http.StatusBadRequest},
		{name: "server error kept", status: http.StatusServiceUnavailable, want: http.StatusServiceUnavailable},
		{name: "unknown becomes 500", status: 0, want: http.StatusInternalServerError},
		{name: "success code becomes 500", status: http.StatusOK, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUpstreamError(context.Background(), LayerInfrastructure, tt.status, "workflow failed", "details", nil, "")
			if got := err.HTTPStatus(); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
			if err.Details != "details" {
				t.Fatalf("expected details to be kept, got %q", err.Details)
			}
		})
	}
}

func TestAsErrorPreservesTypeAndStatus(t *testing.T) {
	inner := NewUpstreamError(context.Background(), LayerInfrastructure, http.StatusTooManyRequests, "rate limited", "slow down", nil, "fixed-uuid")
	wrapped := AsError(context.Background(), LayerDomain, fmt.Errorf("call: %w", inner), "send chat")

	if wrapped.Type != ErrorTypeExternal {
		t.Fatalf("expected external error, got %s", wrapped.Type)
	}
	if wrapped.HTTPStatus() != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", wrapped.HTTPStatus())
	}
	if wrapped.UUID != "fixed-uuid" {
		t.Fatalf("expected uuid to be preserved, got %s", wrapped.UUID)
	}
	if !errors.Is(wrapped, inner) {
		t.Fatal("expected wrapped error to unwrap to inner")
	}
}

func TestAsErrorDeadline(t *testing.T) {
	err := AsError(context.Background(), LayerDomain, context.DeadlineExceeded, "lookup")
	if !IsErrorType(err, ErrorTypeTimeout) {
		t.Fatalf("expected timeout type, got %s", err.Type)
	}
	if AsError(context.Background(), LayerDomain, nil, "noop") != nil {
		t.Fatal("expected nil for nil error")
	}
}
