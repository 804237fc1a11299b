package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bartuchat.app/server/common/logger"
	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/model"
)

// StreamClient opens streaming chat completions against OpenAI-compatible
// endpoints. The returned handle frames the response body with the SSE
// decoder; closing it aborts the in-flight request.
type StreamClient struct {
	httpClient *http.Client
}

type StreamOption func(*StreamClient)

func WithHTTPClient(c *http.Client) StreamOption {
	return func(s *StreamClient) { s.httpClient = c }
}

func NewStreamClient(opts ...StreamOption) *StreamClient {
	s := &StreamClient{
		// No overall timeout: a streaming completion legitimately runs for
		// minutes. Connection setup still gets a bound via the transport.
		httpClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type completionRequest struct {
	Model    string                `json:"model"`
	Messages []model.PromptMessage `json:"messages"`
	Stream   bool                  `json:"stream"`
}

// OpenStream POSTs a streaming completion request and hands back the decoded
// delta stream. Non-2xx responses are drained for their body and surfaced as
// a TransportError.
func (s *StreamClient) OpenStream(ctx context.Context, resolved model.ResolvedModel, payload []model.PromptMessage) (chat.StreamHandle, error) {
	body, err := json.Marshal(completionRequest{
		Model:    resolved.UpstreamModelID,
		Messages: payload,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	url := strings.TrimRight(resolved.EndpointURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if resolved.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+resolved.Credential)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &chat.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		slog.WarnContext(ctx, "upstream rejected completion request",
			"status", resp.StatusCode,
			"body", logger.Truncate(string(detail), 500))
		return nil, &chat.TransportError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("upstream returned %s", resp.Status),
		}
	}

	return &streamHandle{
		Decoder: chat.NewDecoder(resp.Body),
		body:    resp.Body,
	}, nil
}

type streamHandle struct {
	*chat.Decoder
	body io.ReadCloser
}

func (h *streamHandle) Close() error {
	return h.body.Close()
}
