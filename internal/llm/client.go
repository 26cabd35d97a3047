// Package llm talks to an OpenAI-compatible chat and image API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/rcliao/storyteller/internal/model"
)

// MaxImages is the most images one Illustrate call returns.
const MaxImages = 4

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	ImageModel  string
	ImageSize   string
	Temperature float32
	Timeout     time.Duration
}

// Request is one chat completion call.
type Request struct {
	System    string
	History   []model.Message
	Input     string // appended as a final user message when non-empty
	MaxTokens int
}

// Usage reports token usage. Stream usage is zero when the API sends none.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed reply.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Client wraps the go-openai client.
type Client struct {
	client *openai.Client
	cfg    Config
	log    *zap.Logger
}

// New creates a Client. An empty API key is rejected.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: API key is empty", model.ErrInvalidInput)
	}
	if log == nil {
		log = zap.NewNop()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
		log:    log,
	}, nil
}

func (c *Client) chatRequest(req Request, stream bool) (openai.ChatCompletionRequest, error) {
	if strings.TrimSpace(req.System) == "" {
		return openai.ChatCompletionRequest{}, fmt.Errorf("%w: system prompt is empty", model.ErrInvalidInput)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if req.Input != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Input,
		})
	}

	ccr := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
	if stream {
		ccr.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return ccr, nil
}

// Complete sends req and waits for the full reply.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	ccr, err := c.chatRequest(req, false)
	if err != nil {
		return Response{}, err
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, ccr)
	duration := time.Since(start)
	if err != nil {
		return Response{}, c.fail(ctx, kindComplete, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		requestsTotal.WithLabelValues(c.cfg.Model, kindComplete, statusEmpty).Inc()
		return Response{}, fmt.Errorf("%w: empty reply", model.ErrUpstream)
	}

	out := Response{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	requestsTotal.WithLabelValues(c.cfg.Model, kindComplete, statusSuccess).Inc()
	requestDuration.WithLabelValues(c.cfg.Model, kindComplete).Observe(duration.Seconds())
	observeUsage(c.cfg.Model, out.Usage)

	c.log.Debug("completion finished",
		zap.String("model", c.cfg.Model),
		zap.Duration("duration", duration),
		zap.Int("reply_runes", len([]rune(out.Text))),
		zap.Int("total_tokens", out.Usage.TotalTokens),
	)
	return out, nil
}

// Stream sends req and calls onChunk for each delta as it arrives. The full
// text is returned once the stream ends. An onChunk error stops the stream.
func (c *Client) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	ccr, err := c.chatRequest(req, true)
	if err != nil {
		return Response{}, err
	}

	start := time.Now()
	stream, err := c.client.CreateChatCompletionStream(ctx, ccr)
	if err != nil {
		return Response{}, c.fail(ctx, kindStream, err)
	}
	defer stream.Close()

	var text strings.Builder
	var out Response
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Response{}, c.fail(ctx, kindStream, err)
		}

		if chunk.Usage != nil && chunk.Usage.TotalTokens > 0 {
			out.Usage = Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		if onChunk != nil {
			if err := onChunk(delta); err != nil {
				return Response{}, err
			}
		}
	}

	out.Text = text.String()
	if strings.TrimSpace(out.Text) == "" {
		requestsTotal.WithLabelValues(c.cfg.Model, kindStream, statusEmpty).Inc()
		return Response{}, fmt.Errorf("%w: empty reply", model.ErrUpstream)
	}

	duration := time.Since(start)
	requestsTotal.WithLabelValues(c.cfg.Model, kindStream, statusSuccess).Inc()
	requestDuration.WithLabelValues(c.cfg.Model, kindStream).Observe(duration.Seconds())
	observeUsage(c.cfg.Model, out.Usage)

	c.log.Debug("stream finished",
		zap.String("model", c.cfg.Model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", out.Usage.TotalTokens),
	)
	return out, nil
}

// Illustrate generates up to n images for prompt and returns their URLs, or
// data URIs when the API answers with base64 payloads.
func (c *Client) Illustrate(ctx context.Context, prompt string, n int) ([]string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: image prompt is empty", model.ErrInvalidInput)
	}
	n = max(1, min(n, MaxImages))

	start := time.Now()
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              n,
		Size:           c.cfg.ImageSize,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, c.fail(ctx, kindImage, err)
	}

	var images []string
	for _, d := range resp.Data {
		switch {
		case d.URL != "":
			images = append(images, d.URL)
		case d.B64JSON != "":
			images = append(images, "data:image/png;base64,"+d.B64JSON)
		}
	}
	if len(images) == 0 {
		requestsTotal.WithLabelValues(c.cfg.ImageModel, kindImage, statusEmpty).Inc()
		return nil, fmt.Errorf("%w: no images returned", model.ErrUpstream)
	}

	requestsTotal.WithLabelValues(c.cfg.ImageModel, kindImage, statusSuccess).Inc()
	requestDuration.WithLabelValues(c.cfg.ImageModel, kindImage).Observe(time.Since(start).Seconds())
	return images, nil
}

// fail records err and maps it onto the model error kinds.
func (c *Client) fail(ctx context.Context, kind string, err error) error {
	modelName := c.cfg.Model
	if kind == kindImage {
		modelName = c.cfg.ImageModel
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		requestsTotal.WithLabelValues(modelName, kind, statusCancelled).Inc()
		return fmt.Errorf("%w: %v", model.ErrCancelled, err)
	}

	requestsTotal.WithLabelValues(modelName, kind, statusError).Inc()
	c.log.Warn("model request failed", zap.String("kind", kind), zap.String("model", modelName), zap.Error(err))

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s (status %d)", model.ErrUpstream, apiErr.Message, apiErr.HTTPStatusCode)
	}
	return fmt.Errorf("%w: %v", model.ErrUpstream, err)
}
