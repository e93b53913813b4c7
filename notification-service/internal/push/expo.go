// Package push delivers notifications through the Expo push service.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is Expo's push API.
	DefaultEndpoint = "https://exp.host/--/api/v2/push/send"
	// MaxBatch is the most messages Expo accepts per request.
	MaxBatch = 100
)

// Message is one push notification.
type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Ticket is Expo's per-message delivery receipt.
type Ticket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

// OK reports whether Expo accepted the message.
func (t Ticket) OK() bool { return t.Status == "ok" }

// Client sends push notifications to Expo.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
}

// NewClient creates an Expo client. An empty endpoint uses DefaultEndpoint; the access
// token is optional unless enhanced push security is enabled for the project.
func NewClient(endpoint, accessToken string) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		endpoint:    endpoint,
		accessToken: strings.TrimSpace(accessToken),
	}
}

type sendResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send posts up to MaxBatch messages and returns one ticket per message, in order.
func (c *Client) Send(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return nil, nil
	}
	if len(messages) > MaxBatch {
		return nil, fmt.Errorf("batch of %d exceeds %d messages", len(messages), MaxBatch)
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("expo push api status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, errors.New("expo push api: " + out.Errors[0].Message)
	}
	if len(out.Data) != len(messages) {
		return nil, fmt.Errorf("expo returned %d tickets for %d messages", len(out.Data), len(messages))
	}
	return out.Data, nil
}
