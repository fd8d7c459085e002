package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/pkg/logger"
)

// pollTimeout is the long-poll window of getUpdates, in seconds
const pollTimeout = 30

// TelegramClient talks to the Telegram Bot API. It sends messages and
// long-polls getUpdates for inbound ones.
type TelegramClient struct {
	logger     logger.Logger
	baseURL    string
	httpClient *http.Client
	// retryDelay is the pause after a failed poll
	retryDelay time.Duration
}

// NewTelegramClient creates a Bot API client for token
func NewTelegramClient(baseURL, token string, logger logger.Logger) *TelegramClient {
	return &TelegramClient{
		logger:     logger,
		baseURL:    fmt.Sprintf("%s/bot%s", baseURL, token),
		httpClient: &http.Client{Timeout: (pollTimeout + 10) * time.Second},
		retryDelay: 5 * time.Second,
	}
}

var (
	_ repository.ChatRepository = (*TelegramClient)(nil)
	_ repository.UpdateSource   = (*TelegramClient)(nil)
)

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
}

type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Date int64  `json:"date"`
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From *struct {
			ID int64 `json:"id"`
		} `json:"from"`
	} `json:"message"`
}

// SendMessage posts text to chatID
func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) error {
	body := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	if _, status, err := c.call(ctx, "sendMessage", body); err != nil {
		return &entity.TransportError{Transport: "telegram", ChatID: chatID, StatusCode: status, Err: err}
	}
	return nil
}

// Listen long-polls for updates and hands every text message to handle
// until ctx is done
func (c *TelegramClient) Listen(ctx context.Context, handle repository.InboundHandler) error {
	var offset int64
	c.logger.Info("Telegram listener started")

	for {
		if ctx.Err() != nil {
			c.logger.Info("Telegram listener stopped")
			return nil
		}

		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Warn("Telegram getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.retryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			msg := entity.InboundMessage{
				ChatID:     strconv.FormatInt(u.Message.Chat.ID, 10),
				Text:       u.Message.Text,
				ReceivedAt: time.Unix(u.Message.Date, 0),
			}
			if u.Message.From != nil {
				msg.UserID = strconv.FormatInt(u.Message.From.ID, 10)
			}
			handle(ctx, msg)
		}
	}
}

func (c *TelegramClient) getUpdates(ctx context.Context, offset int64) ([]telegramUpdate, error) {
	body := map[string]interface{}{
		"offset":          offset,
		"timeout":         pollTimeout,
		"allowed_updates": []string{"message"},
	}
	raw, _, err := c.call(ctx, "getUpdates", body)
	if err != nil {
		return nil, err
	}
	var updates []telegramUpdate
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("failed to decode updates: %w", err)
	}
	return updates, nil
}

// call invokes a Bot API method and returns its result
func (c *TelegramClient) call(ctx context.Context, method string, body interface{}) (json.RawMessage, int, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var out telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !out.OK {
		if out.Description == "" {
			out.Description = http.StatusText(resp.StatusCode)
		}
		return nil, resp.StatusCode, errors.New(out.Description)
	}
	return out.Result, resp.StatusCode, nil
}
