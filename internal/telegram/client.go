// Package telegram sends check-in messages through the Telegram Bot API and
// classifies why a send failed.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/attendance-checkin/internal/config"
	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
)

// ErrMissingToken is the outcome text when no bot token is configured.
const ErrMissingToken = "Server configuration error: Bot token not found."

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Telegram Bot API client. Sends are attempted once.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
	classifier Classifier
}

// NewClient creates a new Telegram client
func NewClient(cfg config.TelegramConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.BotToken,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		classifier: DescriptionClassifier{},
	}
}

// WithClassifier replaces the failure classification rules.
func (c *Client) WithClassifier(cl Classifier) *Client {
	c.classifier = cl
	return c
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// executionError describes a transport failure without the request URL,
// which carries the bot token. The text ends up in API responses and the
// directory sheet.
func executionError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return "Execution error: " + logger.RedactToken(err.Error())
}

// Send posts message to chatID. It never returns an error: every failure,
// including a missing token, is folded into the outcome.
func (c *Client) Send(ctx context.Context, chatID, message string) domain.NotificationOutcome {
	if c.token == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is not set")
		return domain.Failed(ErrMissingToken)
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: message, ParseMode: "HTML"})
	if err != nil {
		return domain.Failed("Execution error: " + err.Error())
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Failed(executionError(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("telegram send failed", "chat_id", chatID, "error", err)
		return domain.Failed(executionError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Failed("Execution error: reading response: " + logger.RedactToken(err.Error()))
	}

	var parsed apiResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		desc := parsed.Description
		if desc == "" {
			desc = strings.TrimSpace(string(respBody))
		}
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		logger.Warn("telegram API error", "chat_id", chatID, "status", resp.StatusCode, "description", desc)
		return c.classifier.Classify(resp.StatusCode, desc, fmt.Sprintf("HTTP Error: %d - %s", resp.StatusCode, desc))
	}

	if parsed.OK {
		return domain.Delivered()
	}

	desc := parsed.Description
	if desc == "" {
		desc = "Unknown Telegram error"
	}
	logger.Warn("telegram returned ok=false", "chat_id", chatID, "description", desc)
	return c.classifier.Classify(0, desc, "Telegram API Error: "+desc)
}
