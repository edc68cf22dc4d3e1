package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoCards is returned when the provider reply holds no usable cards.
var ErrNoCards = errors.New("AI generation failed")

// Generator turns study text into cards.
type Generator interface {
	Generate(ctx context.Context, text, difficulty string) ([]models.GeneratedCard, error)
}

// Config configures an OpenAI-compatible chat completions endpoint.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	MaxTextLength int
}

type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
	maxText int
}

func NewOpenAIGenerator(cfg Config) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(1),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIGenerator{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: cfg.Timeout,
		maxText: cfg.MaxTextLength,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, text, difficulty string) ([]models.GeneratedCard, error) {
	text = utils.Truncate(strings.TrimSpace(text), g.maxText)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	utils.LogAI("Requesting cards from %s (%d chars, %s)", g.model, len([]rune(text)), difficulty)
	start := time.Now()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(text, difficulty)),
		},
		Model:       openai.ChatModel(g.model),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		utils.LogError("AI request failed after %v: %v", time.Since(start), err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrNoCards)
	}

	cards, err := ParseCards(resp.Choices[0].Message.Content)
	if err != nil {
		utils.LogAI("Unusable reply from %s: %v", g.model, err)
		return nil, err
	}

	utils.LogAI("Generated %d cards in %v", len(cards), time.Since(start))
	return cards, nil
}
