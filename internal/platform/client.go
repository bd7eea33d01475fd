package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sender is the outbound surface the router needs. The HTTP client
// implements it; tests substitute stubs.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	Reply(ctx context.Context, chatID, replyTo int64, text string) error
	GetChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}

// Client talks to the chat platform's bot API. It is a thin transport:
// no delivery retries, non-2xx responses surface as errors.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.post(ctx, "sendMessage", sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}, nil)
}

func (c *Client) Reply(ctx context.Context, chatID, replyTo int64, text string) error {
	return c.post(ctx, "sendMessage", sendMessageRequest{
		ChatID:  chatID,
		Text:    text,
		ReplyTo: replyTo,
	}, nil)
}

func (c *Client) GetChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	var result struct {
		Result ChatMember `json:"result"`
	}
	err := c.post(ctx, "getChatMember", getChatMemberRequest{
		ChatID: chatID,
		UserID: userID,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Result.Status, nil
}

func (c *Client) post(ctx context.Context, method string, payload any, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("chat api client is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(respBody))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return fmt.Errorf("%s status %d: %s", method, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s response: %w", method, err)
		}
	}
	return nil
}

type sendMessageRequest struct {
	ChatID  int64  `json:"chat_id"`
	Text    string `json:"text"`
	ReplyTo int64  `json:"reply_to_message_id,omitempty"`
}

type getChatMemberRequest struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}
