package ai

import (
	"context"
	"strings"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// MultiAIAdapter routes each call to a provider by model name.
type MultiAIAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.AIServiceAdapter
	modelToProvider map[string]string
}

// NewMultiAIAdapter only knows a default provider; each provider adapter owns its default model.
func NewMultiAIAdapter(
	defaultProvider string,
	byProvider map[string]adapter.AIServiceAdapter,
	modelToProvider map[string]string,
) *MultiAIAdapter {
	return &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

// ResolveProvider names the provider a model is routed to.
func (m *MultiAIAdapter) ResolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "o1"), strings.HasPrefix(l, "o3"):
		return ProviderOpenAI
	default:
		return m.defaultProvider
	}
}

func (m *MultiAIAdapter) pick(model string) (adapter.AIServiceAdapter, error) {
	if a := m.byProvider[m.ResolveProvider(model)]; a != nil {
		return a, nil
	}
	if a := m.byProvider[m.defaultProvider]; a != nil {
		return a, nil
	}
	for _, a := range m.byProvider {
		if a != nil {
			return a, nil
		}
	}
	return nil, domain.ErrAIUnavailable
}

func (m *MultiAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(m.modelToProvider)+4)
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for model := range m.modelToProvider {
		add(model)
	}
	for _, a := range m.byProvider {
		list, _ := a.ListModels(ctx)
		for _, name := range list {
			add(name)
		}
	}
	return out, nil
}

func (m *MultiAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	a, err := m.pick(model)
	if err != nil {
		return adapter.ModelInfo{Name: model}, nil
	}
	return a.GetModelInfo(model)
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	a, err := m.pick(model)
	if err != nil {
		return countMessageTokens(model, messages), nil
	}
	return a.CountTokens(ctx, model, messages)
}

func (m *MultiAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	a, err := m.pick(model)
	if err != nil {
		return "", err
	}
	return a.Chat(ctx, model, messages)
}

func (m *MultiAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	a, err := m.pick(model)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	return a.ChatWithUsage(ctx, model, messages)
}
