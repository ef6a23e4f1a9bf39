// Package slack is a minimal Slack Web API client covering the two calls the
// bot needs: opening a direct conversation and posting a plain-text message.
package slack

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
	"time"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" default:"https://slack.com/api"`
	BotToken string        `envconfig:"BOT_TOKEN" split_words:"true" required:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("slack base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid slack base url: %w", err)
	}
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("slack bot token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, opts ...ClientOption) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// OpenConversation opens (or resumes) a direct-message channel with a user
// and returns its channel id.
func (c *Client) OpenConversation(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}

	var parsed struct {
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	err := c.call(ctx, "conversations.open", map[string]any{
		"users": strings.TrimSpace(userID),
	}, &parsed)
	if err != nil {
		return "", err
	}
	if parsed.Channel.ID == "" {
		return "", errors.New("conversations.open returned no channel id")
	}
	return parsed.Channel.ID, nil
}

// PostMessage sends plain text to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	if strings.TrimSpace(channelID) == "" {
		return errors.New("channel id is required")
	}
	return c.call(ctx, "chat.postMessage", map[string]any{
		"channel": strings.TrimSpace(channelID),
		"text":    text,
	}, nil)
}

// SendDirect opens a direct conversation with the user and posts text to it.
func (c *Client) SendDirect(ctx context.Context, userID, text string) error {
	channelID, err := c.OpenConversation(ctx, userID)
	if err != nil {
		return err
	}
	return c.PostMessage(ctx, channelID, text)
}

func (c *Client) call(ctx context.Context, method string, args map[string]any, out any) error {
	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal slack %s args: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute slack %s request: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read slack %s response: %w", method, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("slack %s http status=%d body=%s", method, resp.StatusCode, string(raw))
	}

	var envelope struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode slack %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("slack %s failed: %s", method, envelope.Error)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode slack %s payload: %w", method, err)
		}
	}
	return nil
}
