// Package client talks to the intake backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fofrafo/dynamic-form/internal/models"
)

const (
	generateQuestionPath = "/api/v1/generate-question"
	vetChatPath          = "/api/v1/vet-chat"
	maxErrorBody         = 4 << 10
)

// StatusError is returned for any non-2xx reply. Body is the raw text; the
// server is not assumed to send JSON.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	detail := e.Body
	if detail == "" {
		detail = e.Status
	}
	return fmt.Sprintf("API error %d: %s", e.Code, detail)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	telemetry  Telemetry
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithTelemetry(t Telemetry) Option {
	return func(cl *Client) { cl.telemetry = t }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
		telemetry:  Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateQuestion sends one round and returns a validated question or completion.
func (c *Client) GenerateQuestion(ctx context.Context, req models.GenerateQuestionRequest) (*models.Response, error) {
	started := time.Now()
	c.telemetry.RequestSent(ctx, RequestEvent{
		Endpoint:      generateQuestionPath,
		SessionID:     req.SessionID,
		HistoryLength: len(req.History),
	})

	var resp models.Response
	status, err := c.post(ctx, generateQuestionPath, req, &resp)
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		c.telemetry.RequestFailed(ctx, FailureEvent{
			Endpoint:   generateQuestionPath,
			SessionID:  req.SessionID,
			StatusCode: status,
			Err:        err,
			Duration:   time.Since(started),
		})
		return nil, err
	}

	c.telemetry.ResponseReceived(ctx, ResponseEvent{
		Endpoint:   generateQuestionPath,
		SessionID:  resp.SessionID,
		StatusCode: status,
		Kind:       resp.Kind,
		Duration:   time.Since(started),
	})
	return &resp, nil
}

// VetChat sends a follow-up question about the pet to the assistant.
func (c *Client) VetChat(ctx context.Context, req models.VetChatRequest) (*models.VetChatResponse, error) {
	started := time.Now()
	c.telemetry.RequestSent(ctx, RequestEvent{Endpoint: vetChatPath})

	var resp models.VetChatResponse
	status, err := c.post(ctx, vetChatPath, req, &resp)
	if err == nil && strings.TrimSpace(resp.Response) == "" {
		err = fmt.Errorf("invalid vet chat response structure: missing response")
	}
	if err != nil {
		c.telemetry.RequestFailed(ctx, FailureEvent{Endpoint: vetChatPath, StatusCode: status, Err: err, Duration: time.Since(started)})
		return nil, err
	}

	c.telemetry.ResponseReceived(ctx, ResponseEvent{Endpoint: vetChatPath, StatusCode: status, Duration: time.Since(started)})
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return httpResp.StatusCode, &StatusError{
			Code:   httpResp.StatusCode,
			Status: http.StatusText(httpResp.StatusCode),
			Body:   strings.TrimSpace(string(text)),
		}
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return httpResp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return httpResp.StatusCode, nil
}
