package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/ports/adapter"
)

var (
	_ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)
	_ adapter.Embedder         = (*OpenAIAdapter)(nil)
)

const (
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultEmbeddingModel   = "text-embedding-3-small"
	maxEmbeddingInputTokens = 8191
)

// OpenAIAdapter talks to the Chat Completions and Embeddings APIs. A custom base
// URL points it at any OpenAI-compatible gateway such as LiteLLM.
type OpenAIAdapter struct {
	client     openai.Client
	model      string
	embedModel string
	maxOut     int
}

func NewOpenAIAdapter(apiKey, baseURL, model, embedModel string, maxOut int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	if embedModel == "" {
		embedModel = defaultEmbeddingModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(2)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIAdapter{
		client:     openai.NewClient(opts...),
		model:      model,
		embedModel: embedModel,
		maxOut:     maxOut,
	}, nil
}

func (o *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	page, err := o.client.Models.List(ctx)
	if err != nil {
		return []string{o.model}, nil
	}
	out := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, m.ID)
	}
	if len(out) == 0 {
		out = append(out, o.model)
	}
	return out, nil
}

func (o *OpenAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{
		Name:        modelOrDefault(model, o.model),
		Description: "OpenAI-compatible chat model",
		MaxTokens:   o.maxOut,
		Supports:    []string{"text", "embeddings"},
	}, nil
}

func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return countMessageTokens(modelOrDefault(model, o.model), messages), nil
}

func (o *OpenAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := o.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (o *OpenAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    modelOrDefault(model, o.model),
		Messages: toOpenAIMessages(messages),
	}
	if o.maxOut > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxOut))
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", adapter.Usage{}, fmt.Errorf("openai chat: %w", err)
	}
	usage := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, usage, nil
		}
	}
	return "", usage, domain.ErrEmptyModelReply
}

// Embed truncates the input to the embedding model's context before the call.
func (o *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float64, error) {
	input := truncateTokens(o.embedModel, text, maxEmbeddingInputTokens)
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: o.embedModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(input)},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, domain.ErrEmptyModelReply
	}
	return resp.Data[0].Embedding, nil
}

// EmbeddingModel reports the model used by Embed.
func (o *OpenAIAdapter) EmbeddingModel() string { return o.embedModel }

func toOpenAIMessages(msgs []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
