// Package sms talks to the external text-messaging gateway.
package sms

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

// ErrNotConfigured is returned when no gateway URL is set.
var ErrNotConfigured = errors.New("sms gateway is not configured")

// ErrRejected marks a message the gateway refused for good.
var ErrRejected = errors.New("sms rejected")

// StatusError is a non-2xx answer from the gateway.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sms gateway http %d: %s", e.Code, e.Body)
}

// Unwrap makes client errors match ErrRejected. 429 is not final.
func (e *StatusError) Unwrap() error {
	if e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests {
		return ErrRejected
	}
	return nil
}

// Client sends messages through the gateway HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type sendMessageReq struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type gatewayResp struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Send delivers text to phone.
func (c *Client) Send(ctx context.Context, phone, text string) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	b, err := json.Marshal(sendMessageReq{To: phone, Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var gr gatewayResp
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("sms gateway decode error: %w", err)
	}
	if !gr.OK {
		return fmt.Errorf("%w: %s", ErrRejected, gr.Error)
	}
	return nil
}
