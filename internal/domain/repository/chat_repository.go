package repository

import (
	"context"

	"dealwatch-service/internal/domain/entity"
)

// ChatRepository defines the interface for outbound chat messages.
// Failures are returned as *entity.TransportError.
type ChatRepository interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// InboundHandler is invoked once per decoded inbound message
type InboundHandler func(ctx context.Context, msg entity.InboundMessage)

// UpdateSource delivers inbound chat messages until ctx is done
type UpdateSource interface {
	Listen(ctx context.Context, handle InboundHandler) error
}
