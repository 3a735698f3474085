package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Presigner issues time limited download URLs for object keys.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Resolver maps stored document paths to URLs the workflow service can download.
// Absolute http(s) paths are returned unchanged. Otherwise the path is either
// presigned (when a Presigner is set) or joined onto the public base URL.
type Resolver struct {
	baseURL   *url.URL
	presigner Presigner
	ttl       time.Duration
}

// NewPublicResolver resolves relative paths against baseURL. An empty base
// URL hands paths through as they are stored.
func NewPublicResolver(baseURL string) (*Resolver, error) {
	r := &Resolver{}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return r, nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid file base url %q", baseURL)
	}
	r.baseURL = parsed
	return r, nil
}

// NewPresignedResolver resolves relative paths through presigner.
func NewPresignedResolver(presigner Presigner, ttl time.Duration) *Resolver {
	return &Resolver{presigner: presigner, ttl: ttl}
}

// ResolveURL implements chat.FileURLResolver.
func (r *Resolver) ResolveURL(ctx context.Context, filePath string) (string, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return "", fmt.Errorf("empty file path")
	}
	if isAbsoluteURL(filePath) {
		return filePath, nil
	}

	if r.presigner != nil {
		key := strings.TrimPrefix(filePath, "/")
		signed, err := r.presigner.PresignGet(ctx, key, r.ttl)
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", key, err)
		}
		return signed, nil
	}

	if r.baseURL == nil {
		return filePath, nil
	}
	return r.baseURL.JoinPath(strings.Split(strings.TrimPrefix(filePath, "/"), "/")...).String(), nil
}

func isAbsoluteURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
