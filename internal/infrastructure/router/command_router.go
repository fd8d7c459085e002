package router

import (
	"fmt"

	"dealwatch-service/internal/usecase"
	"dealwatch-service/pkg/logger"
)

// CommandRouter routes bot messages to the first handler that accepts them
type CommandRouter struct {
	handlers []usecase.CommandHandler
	logger   logger.Logger
}

// NewCommandRouter creates a new command router
func NewCommandRouter(logger logger.Logger) *CommandRouter {
	return &CommandRouter{
		handlers: make([]usecase.CommandHandler, 0),
		logger:   logger,
	}
}

// Register registers a handler; earlier handlers win
func (r *CommandRouter) Register(handler usecase.CommandHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered handler", "handler", fmt.Sprintf("%T", handler))
}

// GetHandler returns the appropriate handler for the given text
func (r *CommandRouter) GetHandler(text string) usecase.CommandHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(text) {
			return handler
		}
	}
	return nil
}
