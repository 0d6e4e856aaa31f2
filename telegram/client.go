package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a minimal Bot API client covering what the bot needs:
// delivering messages and keeping the webhook registered. It doubles as
// the production NotificationSink.
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(token string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		token:      token,
		apiBase:    defaultAPIBase,
		httpClient: httpClient,
		log:        log,
	}
}

// Send implements contract.NotificationSink over sendMessage.
func (c *Client) Send(ctx context.Context, to domain.ParticipantID, content string) error {
	chatID, err := strconv.ParseInt(string(to), 10, 64)
	if err != nil {
		return fmt.Errorf("participant id %q is not a chat id: %w", to, err)
	}
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    content,
	}, nil)
}

type webhookInfo struct {
	URL string `json:"url"`
}

// EnsureWebhook registers url as the update webhook unless it already is,
// re-registering from scratch when it differs.
func (c *Client) EnsureWebhook(ctx context.Context, url, secret string) error {
	var info webhookInfo
	if err := c.call(ctx, "getWebhookInfo", nil, &info); err != nil {
		return err
	}
	if info.URL == url {
		return nil
	}
	if info.URL != "" {
		c.log.Info("Replacing existing webhook", "previous", info.URL)
		if err := c.call(ctx, "deleteWebhook", nil, nil); err != nil {
			return err
		}
	}
	params := map[string]any{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", params, nil)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, result any) error {
	var body *bytes.Reader
	if params != nil {
		payload, err := json.Marshal(params)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("telegram %s response malformed: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram %s rejected: %s", method, parsed.Description)
	}
	if result != nil {
		return json.Unmarshal(parsed.Result, result)
	}
	return nil
}
