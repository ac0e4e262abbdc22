// Package client provides a Go client for the relay messaging API: a thin
// HTTP wrapper plus a synchronizer that keeps local conversation and
// friend-presence caches consistent with pushed events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
)

// Client is a relay HTTP API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError carries the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// History fetches the full conversation with a peer, oldest first.
func (c *Client) History(ctx context.Context, peerID uuid.UUID) ([]domain.Message, error) {
	var out struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/messages/"+peerID.String(), nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Send appends a message; at least one of content/image must be set.
func (c *Client) Send(ctx context.Context, receiverID uuid.UUID, content, image string) (*domain.Message, error) {
	in := map[string]any{
		"receiver_id": receiverID,
		"content":     content,
		"image":       image,
	}
	var msg domain.Message
	if err := c.do(ctx, http.MethodPost, "/api/v1/messages", in, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead flips every unread message from the peer; returns how many
// messages were newly affected (zero on repeat calls).
func (c *Client) MarkRead(ctx context.Context, peerID uuid.UUID) (int, error) {
	in := map[string]any{"peer_id": peerID}
	var out struct {
		Affected int `json:"affected"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/messages/read", in, &out); err != nil {
		return 0, err
	}
	return out.Affected, nil
}

// Edit replaces the text content of one of the caller's messages.
func (c *Client) Edit(ctx context.Context, messageID uuid.UUID, content string) (*domain.Message, error) {
	in := map[string]any{"content": content}
	var msg domain.Message
	if err := c.do(ctx, http.MethodPatch, "/api/v1/messages/"+messageID.String(), in, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delete hard-deletes one of the caller's messages.
func (c *Client) Delete(ctx context.Context, messageID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/messages/"+messageID.String(), nil, nil)
}

// Friends lists the caller's friends with their coarse presence.
func (c *Client) Friends(ctx context.Context) ([]domain.Friend, error) {
	var out struct {
		Friends []domain.Friend `json:"friends"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/friends", nil, &out); err != nil {
		return nil, err
	}
	return out.Friends, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&envelope)
		return &APIError{
			Status:  res.StatusCode,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
		}
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
