//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"jan-server/services/chat-api/internal/config"
	"jan-server/services/chat-api/internal/infrastructure/logger"
)

// BuildApplication assembles the chat service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		buildApplication,
	)
	return nil, nil
}
