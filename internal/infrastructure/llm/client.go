package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"PlantScout/internal/config"
	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
	"PlantScout/internal/prompt"
	"PlantScout/internal/retry"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "data: [DONE]"
)

var (
	// ErrStreamFormat is returned when a progress line carries malformed JSON.
	ErrStreamFormat = errors.New("llm: malformed stream line")
	// ErrEmptyResponse is returned when a completion has no content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Client implements ports.PlantStreamer backed by an OpenAI-compatible chat completions API.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	timeout    time.Duration
	retry      retry.Config
	httpClient *http.Client
}

var _ ports.PlantStreamer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		retry:    retry.DefaultConfig(),
		// No client timeout: streaming bodies outlive any fixed deadline.
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Delta *struct {
			Content *string `json:"content"`
		} `json:"delta"`
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt and returns the whole answer.
func (c *Client) Complete(ctx context.Context, spec prompt.Spec) (string, error) {
	spec.Stream = false

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.send(ctx, spec)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil || parsed.Choices[0].Message.Content == nil {
		return "", ErrEmptyResponse
	}

	return *parsed.Choices[0].Message.Content, nil
}

// Stream sends a prompt and yields content fragments as they arrive. The
// terminal sentinel yields a final "\n" so a trailing unterminated line is
// completed. Malformed JSON ends the sequence with ErrStreamFormat.
func (c *Client) Stream(ctx context.Context, spec prompt.Spec) iter.Seq2[string, error] {
	spec.Stream = true

	return func(yield func(string, error) bool) {
		resp, err := c.send(ctx, spec)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		for fragment, err := range decodeStream(resp.Body) {
			if !yield(fragment, err) || err != nil {
				return
			}
		}
	}
}

// StreamPlants asks for native plant candidates near region.
func (c *Client) StreamPlants(ctx context.Context, region string, shade domain.Shade, moisture domain.Moisture) iter.Seq2[string, error] {
	return c.Stream(ctx, prompt.List(region, shade, moisture))
}

// decodeStream turns completion-stream lines into content fragments.
func decodeStream(body io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")

			if line == doneSentinel {
				yield("\n", nil)
				return
			}
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}

			var chunk chatResponse
			if err := json.Unmarshal([]byte(line[len(dataPrefix):]), &chunk); err != nil {
				yield("", fmt.Errorf("%w: %v", ErrStreamFormat, err))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil || chunk.Choices[0].Delta.Content == nil {
				continue
			}
			if content := *chunk.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("read completion stream: %w", err))
		}
	}
}

// send posts the request, retrying transport failures, 429 and 5xx responses.
func (c *Client) send(ctx context.Context, spec prompt.Spec) (*http.Response, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("llm client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: spec.System},
			{Role: "user", Content: spec.User},
		},
		MaxTokens:   spec.MaxTokens,
		Temperature: spec.Temperature,
		Stream:      spec.Stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	return retry.DoWithResult(ctx, c.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, retry.NonRetryable(fmt.Errorf("new request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call completions: %w", err)
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		err = fmt.Errorf("completions error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, err
		}
		return nil, retry.NonRetryable(err)
	})
}
