// Package discord provides the chat-transport layer: a small REST client for
// the Discord v10 HTTP API (used by the polling deployment shape and by the
// send path) and a websocket gateway client (used by the reactive shape).
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBase is the Discord REST endpoint root.
const DefaultAPIBase = "https://discord.com/api/v10"

// User identifies an account. Snowflake IDs arrive as strings on the wire.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

// Message is an inbound channel message as exposed by both the REST and
// gateway surfaces.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    User   `json:"author"`
}

// Snowflake parses a Discord ID into its numeric form; 0 when malformed.
// Snowflakes are time-ordered, so numeric comparison gives message order.
func Snowflake(id string) uint64 {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Client is an authenticated Discord REST client.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient builds a REST client with bot-token authentication.
func NewClient(token string) *Client {
	return &Client{
		BaseURL: DefaultAPIBase,
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil && len(raw) > 0 {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// Me returns the bot's own account identity.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/users/@me", nil, &u)
	return u, err
}

// ChannelMessages fetches the most recent messages in a channel, newest first.
func (c *Client) ChannelMessages(ctx context.Context, channelID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var msgs []Message
	path := fmt.Sprintf("/channels/%d/messages?limit=%d", channelID, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

type messageReference struct {
	MessageID string `json:"message_id"`
}

type createMessage struct {
	Content          string            `json:"content"`
	MessageReference *messageReference `json:"message_reference,omitempty"`
}

// SendMessage posts content into a channel, optionally referencing a prior
// message as the reply target.
func (c *Client) SendMessage(ctx context.Context, channelID int64, content, replyToID string) error {
	body := createMessage{Content: content}
	if replyToID != "" {
		body.MessageReference = &messageReference{MessageID: replyToID}
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%d/messages", channelID), body, nil)
}

// TriggerTyping starts the typing indicator in a channel. Best-effort; the
// send path ignores failures here.
func (c *Client) TriggerTyping(ctx context.Context, channelID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%d/typing", channelID), nil, nil)
}
