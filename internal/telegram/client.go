// Package telegram posts new-ticket notifications to a Telegram chat.
//
// Graceful degradation: NewClient returns nil when the bot token or chat ID
// is missing, and every method is safe to call on a nil *Client.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"

	"complaintdesk/internal/api"
	"complaintdesk/internal/complaint"
)

const defaultBaseURL = "https://api.telegram.org"

// Client represents a Telegram bot client.
type Client struct {
	BotToken  string
	ChatID    string
	DebugMode bool // log instead of sending

	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// Message represents a Telegram message for sending.
type Message struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host (tests use httptest).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the shared HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Telegram client.
//
// Returns:
//   - *Client: Configured client, or nil if token or chat ID is empty
func NewClient(botToken, chatID string, debugMode bool, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}
	if botToken == "" || chatID == "" {
		log.Debug("⚠️  TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set. Telegram notifications disabled.")
		return nil
	}

	c := &Client{
		BotToken:  botToken,
		ChatID:    chatID,
		DebugMode: debugMode,
		baseURL:   defaultBaseURL,
		http:      api.GetHTTPClient(),
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if debugMode {
		c.log.Info("🐛 DEBUG MODE ENABLED - Telegram calls will be simulated")
	}
	return c
}

// FormatTicket renders the notification body.
//
// Message format:
//
//	🎫 Ticket : TCKT1001
//	👤 Ravi
//	📞 9876543210
//	🏢 Water Department (High)
//	📅 2026-03-14 09:30:00
//	💬 Water: no supply since Monday
//	📍 Ward 4
func FormatTicket(rec complaint.Record) string {
	return fmt.Sprintf(
		"🎫 Ticket : <b>%s</b>\n\n"+
			"👤 %s\n"+
			"📞 %s\n"+
			"🏢 %s (%s)\n"+
			"📅 %s\n\n"+
			"💬 <b>%s:</b> %s\n\n"+
			"📍 %s",
		html.EscapeString(rec.TicketID),
		html.EscapeString(rec.Name),
		html.EscapeString(rec.Mobile),
		html.EscapeString(rec.Department),
		html.EscapeString(rec.UrgencyLevel),
		html.EscapeString(rec.Timestamp),
		html.EscapeString(rec.Type),
		html.EscapeString(rec.Description),
		html.EscapeString(rec.Location),
	)
}

// NotifyTicket sends a new-ticket message to the configured chat.
//
// Returns:
//   - int: Telegram message ID (0 when skipped)
//   - error: Request or API error
func (c *Client) NotifyTicket(ctx context.Context, rec complaint.Record) (int, error) {
	if c == nil {
		return 0, nil
	}

	msg := Message{
		ChatID:                c.ChatID,
		Text:                  FormatTicket(rec),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	if c.DebugMode {
		c.log.Info("🐛 Would send Telegram message", "ticket_id", rec.TicketID)
		return 0, nil
	}

	resp, err := c.doRequest(ctx, "sendMessage", msg)
	if err != nil {
		return 0, err
	}
	c.log.Info("📨 Ticket sent to Telegram", "ticket_id", rec.TicketID, "message_id", resp.Result.MessageID)
	return resp.Result.MessageID, nil
}

// doRequest posts a JSON payload to a Bot API method.
func (c *Client) doRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram API error: %s", result.Description)
	}
	return &result, nil
}
