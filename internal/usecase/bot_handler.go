package usecase

import (
	"context"
	"fmt"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/templates"
)

// BotHandler turns inbound chat messages into intake steps or command replies
type BotHandler struct {
	router   CommandRouter
	intake   *Intake
	notifier Notifier
	logger   logger.Logger
}

// NewBotHandler creates a new bot handler
func NewBotHandler(router CommandRouter, intake *Intake, notifier Notifier, logger logger.Logger) *BotHandler {
	return &BotHandler{
		router:   router,
		intake:   intake,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleMessage processes one inbound message. Replies are queued on the notifier.
func (h *BotHandler) HandleMessage(ctx context.Context, msg entity.InboundMessage) {
	if reply := h.reply(ctx, msg); reply != "" {
		h.notifier.Enqueue(msg.ChatID, reply)
	}
}

func (h *BotHandler) reply(ctx context.Context, msg entity.InboundMessage) string {
	if !IsCommand(msg.Text) {
		if reply, ok := h.intake.Handle(ctx, msg.ChatID, msg.Text); ok {
			return reply
		}
		return templates.HelpText
	}

	handler := h.router.GetHandler(msg.Text)
	if handler == nil {
		h.logger.Debug("No handler found for command", "chatID", msg.ChatID, "text", msg.Text)
		return templates.HelpText
	}

	reply, err := handler.Process(ctx, msg)
	if err != nil {
		h.logger.Error("Command failed",
			"chatID", msg.ChatID,
			"handler", fmt.Sprintf("%T", handler),
			"error", err)
		return "Sorry, something went wrong. Please try again."
	}
	return reply
}
