package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/quailyquaily/chatrelay/llm"
)

// requestTimeout bounds a single completion call.
const requestTimeout = 30 * time.Second

// Client talks to the chat-completions endpoint. It performs exactly one
// upstream call per Complete invocation; retry and recovery policy is the
// caller's.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: requestTimeout + 5*time.Second},
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completion request. Failures come back as
// *APIError; a 2xx response with blank text is not an error (the caller
// substitutes its own fallback phrase).
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Result, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body := chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return llm.Result{}, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return llm.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return llm.Result{}, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Result{}, transportError(err)
	}

	var out chatCompletionResponse
	if unmarshalErr := json.Unmarshal(raw, &out); unmarshalErr != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return llm.Result{}, fmt.Errorf("parse completion response: %w", unmarshalErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
		}
		if out.Error != nil {
			apiErr.Code = out.Error.Code
			apiErr.Type = out.Error.Type
			if out.Error.Message != "" {
				apiErr.Message = out.Error.Message
			}
		}
		apiErr.Kind = classifyResponse(resp.StatusCode, apiErr.Code, apiErr.Type)
		return llm.Result{}, apiErr
	}

	res := llm.Result{
		Usage: llm.Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}
	if len(out.Choices) > 0 {
		res.Text = strings.TrimSpace(out.Choices[0].Message.Content)
	}
	return res, nil
}

// transportError wraps a connection-level failure into the taxonomy.
func transportError(err error) error {
	kind := FailureConnection
	if errors.Is(err, context.DeadlineExceeded) {
		kind = FailureTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = FailureTimeout
		}
	}
	return &APIError{Kind: kind, Message: err.Error()}
}
