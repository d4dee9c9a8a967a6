package oracle

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for Config fields left zero.
const (
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
)

// maxErrorBody caps how much of an error response is kept in the error.
const maxErrorBody = 512

// Config configures the chat-completions client.
type Config struct {
	Endpoint          string
	Model             string
	APIKey            string
	Temperature       float64 // 0 uses DefaultTemperature
	MaxTokens         int
	Timeout           time.Duration // per call; expiry is a transport error
	RequestsPerMinute float64       // 0 disables rate limiting
}

// Client is an Oracle backed by an OpenAI-compatible chat completions API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a client. A nil httpClient uses a fresh http.Client.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{cfg: cfg, http: httpClient, logger: logger}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1)
	}
	return c
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// messages builds the chat messages for req: system, carried history, then
// the user turn with the optional scene image.
func messages(req Request) ([]chatMessage, error) {
	text, err := UserPrompt(req)
	if err != nil {
		return nil, err
	}

	msgs := make([]chatMessage, 0, len(req.History)+2)
	msgs = append(msgs, chatMessage{Role: "system", Content: SystemPrompt(req.Phase)})
	for _, m := range req.History {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}

	if req.SceneImage == "" {
		msgs = append(msgs, chatMessage{Role: "user", Content: text})
	} else {
		msgs = append(msgs, chatMessage{Role: "user", Content: []contentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &imageURL{URL: req.SceneImage}},
		}})
	}
	return msgs, nil
}

// RequestPlacement sends one request and parses the answer. It never retries.
func (c *Client) RequestPlacement(ctx context.Context, req Request) (Reply, error) {
	const op = "chat completion"

	msgs, err := messages(req)
	if err != nil {
		return Reply{}, fmt.Errorf("oracle: build request: %w", err)
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.temperature(),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("oracle: build request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Reply{}, transportErr("rate limit", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, transportErr(op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", c.cfg.Timeout, err)
		}
		return Reply{}, transportErr(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, transportErr("read response", err)
	}
	c.logger.Debug("oracle responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("phase", phaseName(req.Phase)),
		zap.String("granularity", req.Granularity.String()),
	)

	if resp.StatusCode >= 400 {
		return Reply{}, transportErr(op, fmt.Errorf("status=%d msg=%s", resp.StatusCode, truncate(string(body), maxErrorBody)))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return Reply{}, malformedErr("decode response", err)
	}
	if len(chat.Choices) == 0 {
		return Reply{}, malformedErr("decode response", errors.New("no choices"))
	}
	content := chat.Choices[0].Message.Content

	if req.Phase == PhaseGuidance {
		text := strings.TrimSpace(content)
		if text == "" {
			return Reply{}, emptyErr("guidance")
		}
		return Reply{Guidance: text, Content: content}, nil
	}

	batch, err := ParseContent(content)
	if err != nil {
		c.logger.Warn("oracle content rejected", zap.Error(err), zap.String("content", truncate(content, maxErrorBody)))
		return Reply{}, err
	}
	return Reply{Batch: batch, Content: content}, nil
}

func (c *Client) temperature() float64 {
	if c.cfg.Temperature == 0 {
		return DefaultTemperature
	}
	return c.cfg.Temperature
}

func phaseName(p Phase) string {
	if p == PhaseGuidance {
		return "guidance"
	}
	return "placement"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
