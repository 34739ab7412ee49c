package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/fitprint-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// ImageInput is a multimodal image reference.
type ImageInput struct {
	// https://... or data:image/...;base64,...
	ImageURL string
	// "low" | "high" | "auto"; empty lets the API decide.
	Detail string
}

type Config struct {
	APIKey      string
	BaseURL     string // optional, must include the /v1 suffix
	Model       string
	VisionModel string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client is the chat-completions surface the analysis pipeline needs.
// It performs exactly one request per call and never retries.
type Client struct {
	log         *logger.Logger
	api         *goopenai.Client
	model       string
	visionModel string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

var ErrEmptyCompletion = errors.New("openai: empty completion")

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		apiCfg.BaseURL = base
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		log:         log.With("service", "openai.Client"),
		api:         goopenai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}, nil
}

// GenerateText sends a system + user prompt and returns the first choice's text.
func (c *Client) GenerateText(ctx context.Context, system, user string) (string, error) {
	msgs := make([]goopenai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: user})
	return c.complete(ctx, c.model, msgs)
}

// GenerateTextWithImages sends a prompt plus images to the vision model.
func (c *Client) GenerateTextWithImages(ctx context.Context, system, user string, images []ImageInput) (string, error) {
	parts := []goopenai.ChatMessagePart{{Type: goopenai.ChatMessagePartTypeText, Text: user}}
	for _, img := range images {
		if strings.TrimSpace(img.ImageURL) == "" {
			continue
		}
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    img.ImageURL,
				Detail: imageDetail(img.Detail),
			},
		})
	}
	msgs := make([]goopenai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, MultiContent: parts})
	return c.complete(ctx, c.visionModel, msgs)
}

func (c *Client) complete(ctx context.Context, model string, msgs []goopenai.ChatCompletionMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	dur := time.Since(start)
	if err != nil {
		c.log.Warn("chat completion failed", "model", model, "duration_ms", dur.Milliseconds(), "error", err)
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	c.log.Debug("chat completion done",
		"model", model,
		"duration_ms", dur.Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens,
		"finish_reason", string(resp.Choices[0].FinishReason),
	)
	return resp.Choices[0].Message.Content, nil
}

func imageDetail(raw string) goopenai.ImageURLDetail {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return goopenai.ImageURLDetailLow
	case "high":
		return goopenai.ImageURLDetailHigh
	default:
		return goopenai.ImageURLDetailAuto
	}
}
