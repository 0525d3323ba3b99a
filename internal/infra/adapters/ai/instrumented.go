package ai

import (
	"context"
	"time"

	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/infra/metrics"
)

var (
	_ adapter.AIServiceAdapter = (*instrumentedAI)(nil)
	_ adapter.Embedder         = (*instrumentedEmbedder)(nil)
)

// ProviderResolver names the provider serving a model, for metric labels.
type ProviderResolver func(model string) string

type instrumentedAI struct {
	inner        adapter.AIServiceAdapter
	provider     ProviderResolver
	defaultModel string
}

// NewInstrumentedAI records token usage and latency of every chat call.
// Chat goes through ChatWithUsage so usage is always observed.
func NewInstrumentedAI(inner adapter.AIServiceAdapter, provider ProviderResolver, defaultModel string) adapter.AIServiceAdapter {
	return &instrumentedAI{inner: inner, provider: provider, defaultModel: defaultModel}
}

func (i *instrumentedAI) ListModels(ctx context.Context) ([]string, error) {
	return i.inner.ListModels(ctx)
}

func (i *instrumentedAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return i.inner.GetModelInfo(model)
}

func (i *instrumentedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return i.inner.CountTokens(ctx, model, messages)
}

func (i *instrumentedAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := i.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (i *instrumentedAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	start := time.Now()
	reply, usage, err := i.inner.ChatWithUsage(ctx, model, messages)
	name := modelOrDefault(model, i.defaultModel)
	provider := "unknown"
	if i.provider != nil {
		provider = i.provider(name)
	}
	metrics.ObserveChatUsage(provider, name,
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens,
		int(time.Since(start).Milliseconds()), err == nil)
	return reply, usage, err
}

type instrumentedEmbedder struct {
	inner adapter.Embedder
	model string
}

func NewInstrumentedEmbedder(inner adapter.Embedder, model string) adapter.Embedder {
	return &instrumentedEmbedder{inner: inner, model: model}
}

func (e *instrumentedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	v, err := e.inner.Embed(ctx, text)
	metrics.IncEmbedding(e.model, err == nil)
	return v, err
}
