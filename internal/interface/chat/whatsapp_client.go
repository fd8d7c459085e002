package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/pkg/logger"
)

// WhatsAppConfig holds the gateway connection settings
type WhatsAppConfig struct {
	BaseURL   string
	Token     string
	CompanyID string
	AgentID   string
}

// WhatsAppClient sends chat messages through the WhatsApp gateway.
// Chat ids are the recipients' phone numbers.
type WhatsAppClient struct {
	logger     logger.Logger
	cfg        WhatsAppConfig
	httpClient *http.Client
}

// NewWhatsAppClient creates a new WhatsApp gateway client
func NewWhatsAppClient(cfg WhatsAppConfig, logger logger.Logger) repository.ChatRepository {
	return &WhatsAppClient{
		logger:     logger,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessage posts a text message to chatID
func (c *WhatsAppClient) SendMessage(ctx context.Context, chatID, text string) error {
	msg := entity.GatewayMessageRequest{
		CompanyID:   c.cfg.CompanyID,
		AgentID:     c.cfg.AgentID,
		PhoneNumber: chatID,
		Message:     entity.GatewayMessage{Text: text},
		Type:        "text",
	}
	if err := msg.Message.Validate(); err != nil {
		return c.fail(chatID, 0, fmt.Errorf("invalid message: %w", err))
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return c.fail(chatID, 0, fmt.Errorf("failed to marshal payload: %w", err))
	}

	url := fmt.Sprintf("%s/api/v1/mailcast/send-message", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return c.fail(chatID, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(chatID, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return c.fail(chatID, resp.StatusCode, fmt.Errorf("gateway returned status %d: %v", resp.StatusCode, errorBody))
	}

	var response entity.GatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return c.fail(chatID, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	if !response.Success {
		return c.fail(chatID, resp.StatusCode, fmt.Errorf("%s (code: %s)", response.Error.Message, response.Error.Code))
	}

	c.logger.Debug("WhatsApp message accepted", "phone", chatID, "taskId", response.Data.TaskID)
	return nil
}

func (c *WhatsAppClient) fail(chatID string, status int, err error) error {
	return &entity.TransportError{Transport: "whatsapp", ChatID: chatID, StatusCode: status, Err: err}
}
