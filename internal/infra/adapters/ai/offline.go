package ai

import (
	"context"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/ports/adapter"
)

var (
	_ adapter.AIServiceAdapter = Offline{}
	_ adapter.Embedder         = Offline{}
)

// Offline stands in when no provider key is configured. Every call fails with
// domain.ErrAIUnavailable so the agents take their fallback paths.
type Offline struct{}

func (Offline) ListModels(ctx context.Context) ([]string, error) { return nil, nil }

func (Offline) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: model}, nil
}

func (Offline) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return countMessageTokens(model, messages), nil
}

func (Offline) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	return "", domain.ErrAIUnavailable
}

func (Offline) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	return "", adapter.Usage{}, domain.ErrAIUnavailable
}

func (Offline) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, domain.ErrAIUnavailable
}
