package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// ErrEmptyResponse is returned when the api answers without content.
var ErrEmptyResponse = errors.New("ai: empty response")

// Config holds the openai-compatible api settings.
type Config struct {
	APIKey            string
	BaseURL           string
	ChatModel         string
	ImageModel        string
	EmbeddingModel    string
	RequestsPerMinute int
	Timeout           time.Duration
}

// MetricsRecorder abstracts prometheus metrics for the ai client.
type MetricsRecorder interface {
	RecordUpstreamError(service string)
}

// Client talks to an openai-compatible api for drafts, summaries,
// embeddings and images. calls share one token-bucket limiter.
type Client struct {
	api        *openai.Client
	config     Config
	limiter    *rate.Limiter
	guidelines Guidelines
	logger     *logging.Logger
	metrics    MetricsRecorder
}

// NewClient creates a client with the embedded platform guidelines.
func NewClient(config Config, logger *logging.Logger) (*Client, error) {
	guidelines, err := LoadGuidelines()
	if err != nil {
		return nil, err
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	apiConfig.HTTPClient = &http.Client{Timeout: timeout}

	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiConfig),
		config:     config,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), max(rpm/10, 1)),
		guidelines: guidelines,
		logger:     logger.WithComponent("ai_client"),
	}, nil
}

// WithMetrics sets the metrics recorder for observability.
func (c *Client) WithMetrics(m MetricsRecorder) *Client {
	c.metrics = m
	return c
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ai rate limit: %w", err)
	}
	return nil
}

func (c *Client) fail(op string, err error) error {
	if c.metrics != nil {
		c.metrics.RecordUpstreamError("openai")
	}
	c.logger.Warn("ai request failed", "operation", op, "error", err.Error())
	return fmt.Errorf("ai %s: %w", op, err)
}

// WriteDraft writes one post for a platform.
// implements application.DraftWriter.
func (c *Client) WriteDraft(ctx context.Context, req application.DraftRequest) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.draftSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: draftUserPrompt(req)},
		},
		Temperature: 0.8,
	})
	if err != nil {
		return "", c.fail("write draft", err)
	}

	text := firstChoice(resp)
	if text == "" {
		return "", c.fail("write draft", ErrEmptyResponse)
	}
	return text, nil
}

func (c *Client) draftSystemPrompt(req application.DraftRequest) string {
	var b strings.Builder
	b.WriteString("You are a ghostwriter for a content creator. Write a single ready-to-post draft. ")
	b.WriteString("Return only the post text, without quotes or commentary.\n\n")
	b.WriteString(c.guidelines.Render(req.Platform))

	if req.Niche != "" {
		fmt.Fprintf(&b, "Creator niche: %s\n", req.Niche)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}

	if len(req.StyleExamples) > 0 {
		b.WriteString("\nMatch the voice of these past posts by the creator:\n")
		for i, ex := range req.StyleExamples {
			fmt.Fprintf(&b, "Example %d:\n%s\n", i+1, ex)
		}
	}
	return b.String()
}

func draftUserPrompt(req application.DraftRequest) string {
	if req.Summary == "" {
		return fmt.Sprintf("Write a %s post about the trending topic %q.", req.Platform, req.Topic)
	}
	return fmt.Sprintf("Write a %s post about the trending topic %q.\nContext: %s", req.Platform, req.Topic, req.Summary)
}

// SummarizeTrends writes a one-sentence summary per topic in a single call.
// implements application.TrendSummarizer.
func (c *Client) SummarizeTrends(ctx context.Context, analyses []domain.TrendAnalysis) (map[string]string, error) {
	if len(analyses) == 0 {
		return map[string]string{}, nil
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Trending topics with their heuristic notes:\n")
	for _, a := range analyses {
		fmt.Fprintf(&b, "- %s (momentum %.0f, %d mentions): %s\n",
			a.Topic, a.MomentumScore.Value(), a.Metrics.MentionsCount, a.Summary)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You summarize social media trends for content creators. " +
					"Answer with a JSON object mapping each topic exactly as given to one short sentence explaining why it is trending.",
			},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, c.fail("summarize trends", err)
	}

	return parseSummaries(firstChoice(resp), analyses)
}

// parseSummaries keeps the summaries of requested topics only.
func parseSummaries(content string, analyses []domain.TrendAnalysis) (map[string]string, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decoding trend summaries: %w", err)
	}

	out := make(map[string]string, len(analyses))
	for _, a := range analyses {
		if s := strings.TrimSpace(raw[a.Topic]); s != "" {
			out[a.Topic] = s
		}
	}
	return out, nil
}

// Embed returns one vector per text, in input order.
// implements application.Embedder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.config.EmbeddingModel),
	})
	if err != nil {
		return nil, c.fail("embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, c.fail("embed", fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts)))
	}

	vectors := make([][]float32, len(texts))
	for _, e := range resp.Data {
		if e.Index < 0 || e.Index >= len(texts) {
			return nil, c.fail("embed", fmt.Errorf("embedding index %d out of range", e.Index))
		}
		vectors[e.Index] = e.Embedding
	}
	return vectors, nil
}

// GenerateImage returns the url of an image generated for prompt.
// implements application.ImageGenerator.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.config.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", c.fail("generate image", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", c.fail("generate image", ErrEmptyResponse)
	}
	return resp.Data[0].URL, nil
}

func firstChoice(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
