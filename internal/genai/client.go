// Package genai is a streaming client for the Gemini generateContent REST
// API. It speaks the server-sent-events variant of the endpoint and hands
// each text delta to the caller as soon as it is decoded.
package genai

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

// Conversation roles on the wire.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// DefaultBaseURL is the public Generative Language endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Turn is one prior message of the conversation. Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

// Request is a single streamed generation: a system instruction, the prior
// turns and the new user prompt.
type Request struct {
	System  string
	History []Turn
	Prompt  string
}

// Streamer produces a reply incrementally. onDelta is called for every
// non-empty chunk in order; returning an error from it aborts the stream.
// The returned string is everything delivered to onDelta, even on error.
type Streamer interface {
	Stream(ctx context.Context, req Request, onDelta func(string) error) (string, error)
}

// ErrNoAPIKey is returned by New when no key is configured.
var ErrNoAPIKey = errors.New("genai: api key required")

// ErrMalformedChunk is returned by Stream when a data frame is not valid
// JSON. Text delivered before it is kept.
var ErrMalformedChunk = errors.New("genai: malformed stream chunk")

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("genai: http %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("genai: http %d", e.StatusCode)
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls models/{model}:streamGenerateContent?alt=sse.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// New validates opts and returns a ready client.
func New(opts Options) (*Client, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, ErrNoAPIKey
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: base, apiKey: key, model: model, timeout: opts.Timeout, httpClient: hc}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateChunk struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func buildRequest(req Request) generateRequest {
	out := generateRequest{Contents: make([]content, 0, len(req.History)+1)}
	if s := strings.TrimSpace(req.System); s != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: s}}}
	}
	for _, t := range req.History {
		role := RoleUser
		if t.Role == RoleModel {
			role = RoleModel
		}
		out.Contents = append(out.Contents, content{Role: role, Parts: []part{{Text: t.Text}}})
	}
	out.Contents = append(out.Contents, content{Role: RoleUser, Parts: []part{{Text: req.Prompt}}})
	return out
}

// Stream implements Streamer.
func (c *Client) Stream(ctx context.Context, req Request, onDelta func(string) error) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildRequest(req)); err != nil {
		return "", err
	}

	ctx2 := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx2, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx2, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", parseHTTPError(resp.StatusCode, raw)
	}

	var full strings.Builder
	err = streamSSE(resp.Body, func(_ string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var chunk generateChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedChunk, err)
		}
		if chunk.Error != nil {
			return &HTTPError{StatusCode: chunk.Error.Code, Status: chunk.Error.Status, Message: chunk.Error.Message}
		}
		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" && len(chunk.Candidates) == 0 {
			return fmt.Errorf("genai: prompt blocked: %s", chunk.PromptFeedback.BlockReason)
		}
		for _, cand := range chunk.Candidates {
			for _, p := range cand.Content.Parts {
				if p.Text == "" {
					continue
				}
				if onDelta != nil {
					if err := onDelta(p.Text); err != nil {
						return err
					}
				}
				full.WriteString(p.Text)
			}
		}
		return nil
	})
	return full.String(), err
}

func parseHTTPError(code int, raw []byte) error {
	var env struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return &HTTPError{StatusCode: code, Status: env.Error.Status, Message: env.Error.Message}
	}
	return &HTTPError{StatusCode: code, Message: strings.TrimSpace(string(raw))}
}
