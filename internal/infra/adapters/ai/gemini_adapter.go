package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/ports/adapter"
)

var (
	_ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)
	_ adapter.Embedder         = (*GeminiAdapter)(nil)
)

const (
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultGeminiEmbedding = "text-embedding-004"
)

type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	embedModel   string
	maxOut       int
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel, embedModel string, maxOut int) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if defaultModel == "" || !strings.HasPrefix(strings.ToLower(defaultModel), "gemini") {
		defaultModel = defaultGeminiModel
	}
	if embedModel == "" || strings.HasPrefix(embedModel, "text-embedding-3") {
		embedModel = defaultGeminiEmbedding
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, embedModel: embedModel, maxOut: maxOut}, nil
}

func (g *GeminiAdapter) ListModels(ctx context.Context) ([]string, error) {
	var out []string
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			break
		}
		if m.Name != "" {
			out = append(out, m.Name)
		}
	}
	if len(out) == 0 {
		out = []string{g.defaultModel}
	}
	return out, nil
}

func (g *GeminiAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	model = g.resolve(model)
	m, err := g.client.Models.Get(context.Background(), model, nil)
	if err != nil {
		return adapter.ModelInfo{Name: model}, nil
	}
	return adapter.ModelInfo{
		Name:        m.Name,
		Description: m.Description,
		MaxTokens:   int(m.InputTokenLimit),
		Supports:    m.SupportedActions,
	}, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	system, contents := toGenAIContents(messages)
	if system != nil {
		contents = append([]*genai.Content{{Role: genai.RoleUser, Parts: system.Parts}}, contents...)
	}
	resp, err := g.client.Models.CountTokens(ctx, g.resolve(model), contents, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func (g *GeminiAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := g.ChatWithUsage(ctx, model, messages)
	return reply, err
}

// ChatWithUsage sends system messages as the system instruction and the rest as history.
func (g *GeminiAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	if len(messages) == 0 {
		return "", adapter.Usage{}, errors.New("gemini: no messages")
	}
	system, contents := toGenAIContents(messages)
	if len(contents) == 0 {
		return "", adapter.Usage{}, errors.New("gemini: no user message")
	}
	cfg := &genai.GenerateContentConfig{SystemInstruction: system}
	if g.maxOut > 0 {
		cfg.MaxOutputTokens = int32(g.maxOut)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.resolve(model), contents, cfg)
	if err != nil {
		return "", adapter.Usage{}, fmt.Errorf("gemini generate: %w", err)
	}
	u := adapter.Usage{}
	if resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	text := resp.Text()
	if text == "" {
		return "", u, domain.ErrEmptyModelReply
	}
	return text, u, nil
}

func (g *GeminiAdapter) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, domain.ErrEmptyModelReply
	}
	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

func (g *GeminiAdapter) EmbeddingModel() string { return g.embedModel }

// resolve swaps in the default for empty or non-Gemini model names, which
// reach this adapter when it is the only configured provider.
func (g *GeminiAdapter) resolve(model string) string {
	if !strings.HasPrefix(strings.ToLower(model), "gemini") {
		return g.defaultModel
	}
	return model
}

func toGenAIContents(msgs []adapter.Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: m.Content})
		case "assistant", "model":
			out = append(out, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			out = append(out, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return system, out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
