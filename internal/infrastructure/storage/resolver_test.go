package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubPresigner struct {
	keys []string
	ttl  time.Duration
	err  error
}

func (s *stubPresigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.keys = append(s.keys, key)
	s.ttl = ttl
	if s.err != nil {
		return "", s.err
	}
	return "https://bucket.s3.local/" + key + "?X-Amz-Signature=abc", nil
}

func TestPublicResolver(t *testing.T) {
	resolver, err := NewPublicResolver("https://cdn.example.com/uploads/")
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{path: "cvs/alice.pdf", want: "https://cdn.example.com/uploads/cvs/alice.pdf"},
		{path: "/cvs/bob.pdf", want: "https://cdn.example.com/uploads/cvs/bob.pdf"},
		{path: "https://elsewhere.example.com/cv.pdf", want: "https://elsewhere.example.com/cv.pdf"},
	}
	for _, tt := range tests {
		got, err := resolver.ResolveURL(context.Background(), tt.path)
		if err != nil {
			t.Fatalf("resolve %s: %v", tt.path, err)
		}
		if got != tt.want {
			t.Fatalf("resolve %s: expected %s, got %s", tt.path, tt.want, got)
		}
	}
}

func TestPublicResolverWithoutBase(t *testing.T) {
	resolver, err := NewPublicResolver("")
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	got, err := resolver.ResolveURL(context.Background(), "cvs/alice.pdf")
	if err != nil || got != "cvs/alice.pdf" {
		t.Fatalf("expected passthrough, got %q, %v", got, err)
	}
	if _, err := resolver.ResolveURL(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestPublicResolverRejectsRelativeBase(t *testing.T) {
	if _, err := NewPublicResolver("uploads"); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestPresignedResolver(t *testing.T) {
	presigner := &stubPresigner{}
	resolver := NewPresignedResolver(presigner, 5*time.Minute)

	got, err := resolver.ResolveURL(context.Background(), "/cvs/alice.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "https://bucket.s3.local/cvs/alice.pdf?X-Amz-Signature=abc" {
		t.Fatalf("unexpected url %s", got)
	}
	if len(presigner.keys) != 1 || presigner.keys[0] != "cvs/alice.pdf" || presigner.ttl != 5*time.Minute {
		t.Fatalf("unexpected presign call %+v", presigner)
	}

	if _, err := resolver.ResolveURL(context.Background(), "http://already/signed"); err != nil || len(presigner.keys) != 1 {
		t.Fatal("absolute urls must not be presigned")
	}

	presigner.err = errors.New("denied")
	if _, err := resolver.ResolveURL(context.Background(), "cvs/bob.pdf"); err == nil {
		t.Fatal("expected presign error")
	}
}
