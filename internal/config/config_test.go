package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WORKFLOW_API_URL", "http://workflow.local/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.ServiceName != "chat-api" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.DefaultChatTitle != "New Chat" {
		t.Fatalf("unexpected default title %q", cfg.DefaultChatTitle)
	}
	if cfg.RankingFnCall != "candidate-rank" {
		t.Fatalf("unexpected ranking fn call %q", cfg.RankingFnCall)
	}
	if cfg.StreamIdleTimeout != 60*time.Second {
		t.Fatalf("unexpected idle timeout %s", cfg.StreamIdleTimeout)
	}
	if cfg.StreamMaxFrameBytes != 10*1024*1024 {
		t.Fatalf("unexpected max frame bytes %d", cfg.StreamMaxFrameBytes)
	}
	if cfg.TraceSampleRate != 1.0 || !cfg.OTLPInsecure {
		t.Fatalf("unexpected tracing defaults rate=%v insecure=%v", cfg.TraceSampleRate, cfg.OTLPInsecure)
	}
	if cfg.Addr() != ":8190" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadRequiresWorkflowURL(t *testing.T) {
	t.Setenv("WORKFLOW_API_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when WORKFLOW_API_URL is missing")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			WorkflowAPIURL:      "https://workflow.example.com/v1",
			StorageDriver:       StorageDriverMemory,
			StreamMaxFrameBytes: 1024,
			FileURLMode:         FileURLModePublic,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative workflow url", mutate: func(c *Config) { c.WorkflowAPIURL = "/v1" }, wantErr: "WORKFLOW_API_URL"},
		{name: "unknown storage driver", mutate: func(c *Config) { c.StorageDriver = "sqlite" }, wantErr: "STORAGE_DRIVER"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.FileURLMode = FileURLModeS3 }, wantErr: "FILE_S3_BUCKET"},
		{name: "s3 without credentials", mutate: func(c *Config) {
			c.FileURLMode = FileURLModeS3
			c.FileS3Bucket = "cvs"
		}, wantErr: "FILE_S3_ACCESS_KEY_ID"},
		{name: "auth without issuer", mutate: func(c *Config) { c.AuthEnabled = true }, wantErr: "AUTH_ISSUER"},
		{name: "sample rate above one", mutate: func(c *Config) { c.TraceSampleRate = 1.5 }, wantErr: "OTEL_TRACES_SAMPLER_ARG"},
		{name: "negative idle timeout", mutate: func(c *Config) { c.StreamIdleTimeout = -time.Second }, wantErr: "STREAM_IDLE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
