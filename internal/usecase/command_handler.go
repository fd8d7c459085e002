package usecase

import (
	"context"

	"dealwatch-service/internal/domain/entity"
)

// CommandHandler defines the interface for bot command handlers
type CommandHandler interface {
	// CanHandle determines if this handler can process the given message text
	CanHandle(text string) bool

	// Process handles the message and returns the reply text
	Process(ctx context.Context, msg entity.InboundMessage) (string, error)
}

// CommandRouter routes inbound messages to the appropriate handler
type CommandRouter interface {
	// Register registers a handler
	Register(handler CommandHandler)

	// GetHandler returns the handler for the given text, or nil
	GetHandler(text string) CommandHandler
}
