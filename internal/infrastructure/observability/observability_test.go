package observability

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"jan-server/services/chat-api/internal/config"
)

func TestSetupDisabledReturnsNoopShutdown(t *testing.T) {
	cfg := &config.Config{EnableTracing: true}

	shutdown, err := Setup(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		root string
	}{
		{name: "full sampling", rate: 1.0, root: "AlwaysOnSampler"},
		{name: "no sampling", rate: 0, root: "AlwaysOffSampler"},
		{name: "partial sampling", rate: 0.25, root: "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			description := newSampler(tt.rate).Description()
			if !strings.HasPrefix(description, "ParentBased{root:"+tt.root) {
				t.Fatalf("unexpected sampler %q", description)
			}
		})
	}
}

func TestExporterOptions(t *testing.T) {
	cfg := &config.Config{OTLPEndpoint: "collector:4318"}
	if got := len(exporterOptions(cfg)); got != 1 {
		t.Fatalf("expected endpoint only, got %d options", got)
	}

	cfg.OTLPInsecure = true
	cfg.OTLPHeaders = map[string]string{"x-api-key": "secret"}
	if got := len(exporterOptions(cfg)); got != 3 {
		t.Fatalf("expected endpoint, insecure and headers, got %d options", got)
	}
}

func TestNewResource(t *testing.T) {
	cfg := &config.Config{
		ServiceName:    "chat-api",
		ServiceVersion: "1.4.0",
		Environment:    "staging",
		WorkflowAPIURL: "https://workflow.example.com/v1",
	}

	res, err := newResource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new resource: %v", err)
	}

	want := map[attribute.Key]string{
		semconv.ServiceNameKey:           "chat-api",
		semconv.ServiceVersionKey:        "1.4.0",
		semconv.DeploymentEnvironmentKey: "staging",
		"chat.workflow.host":             "workflow.example.com",
	}
	set := res.Set()
	for key, value := range want {
		got, ok := set.Value(key)
		if !ok || got.AsString() != value {
			t.Fatalf("expected %s=%q, got %q", key, value, got.AsString())
		}
	}
}
