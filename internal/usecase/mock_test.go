//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func floatPtr(v float64) *float64 { return &v }

// =============================
// Adapters
// =============================

// ---- Mock AIServiceAdapter ----

type MockAI struct {
	mu    sync.Mutex
	Calls [][]adapter.Message

	ChatFunc func(ctx context.Context, model string, messages []adapter.Message) (string, error)
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) ListModels(ctx context.Context) ([]string, error) { return []string{"test-model"}, nil }

func (m *MockAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: model}, nil
}

func (m *MockAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return len(messages), nil
}

func (m *MockAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, messages)
	m.mu.Unlock()
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, model, messages)
	}
	return "", io.EOF
}

func (m *MockAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	out, err := m.Chat(ctx, model, messages)
	return out, adapter.Usage{}, err
}

func (m *MockAI) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// ---- Mock ResumeParser ----

type MockParser struct {
	ParseFunc func(ctx context.Context, in adapter.ResumeInput) (*model.ParsedResume, error)
}

func (m *MockParser) Parse(ctx context.Context, in adapter.ResumeInput) (*model.ParsedResume, error) {
	if m.ParseFunc != nil {
		return m.ParseFunc(ctx, in)
	}
	return &model.ParsedResume{
		Skills:    []model.Skill{{Name: "Go", Level: "advanced"}, {Name: "PostgreSQL"}},
		Seniority: model.SeniorityMiddle,
		Location:  "Москва",
		Mobility:  model.MobilityLocal,
	}, nil
}

// ---- Mock JobSearchProvider ----

type MockSearch struct {
	mu      sync.Mutex
	Queries []adapter.JobQuery

	SearchFunc func(ctx context.Context, q adapter.JobQuery) (*adapter.JobSearchResult, error)
}

func (m *MockSearch) Search(ctx context.Context, q adapter.JobQuery) (*adapter.JobSearchResult, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	m.mu.Unlock()
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q)
	}
	return &adapter.JobSearchResult{Jobs: sampleJobs("a", "b", "c", "d")}, nil
}

func sampleJobs(ids ...string) []model.JobPosting {
	out := make([]model.JobPosting, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.JobPosting{
			JobID:          id,
			Title:          "Go Developer " + id,
			Company:        "Company " + id,
			Description:    "Backend services",
			SkillsRequired: []string{"Go"},
			Source:         model.DefaultJobSource,
		})
	}
	return out
}

// ---- Mock ContentGenerator ----

type MockContent struct {
	mu    sync.Mutex
	Kinds []adapter.ContentKind

	GenerateFunc func(ctx context.Context, kind adapter.ContentKind, p *model.Profile, job *model.JobPosting) (string, error)
}

func (m *MockContent) Generate(ctx context.Context, kind adapter.ContentKind, p *model.Profile, job *model.JobPosting) (string, error) {
	m.mu.Lock()
	m.Kinds = append(m.Kinds, kind)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, kind, p, job)
	}
	return string(kind) + " for " + job.JobID, nil
}

func (m *MockContent) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Kinds)
}

// ---- Mock Embedder ----

type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, text string) ([]float64, error)
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float64{1, 0, 0}, nil
}

// ---- Mock EventPublisher ----

type MockEvents struct {
	mu     sync.Mutex
	Events []adapter.SessionEvent
}

func (m *MockEvents) Publish(ctx context.Context, ev adapter.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// =============================
// Repositories
// =============================

// ---- In-memory SessionStore ----

type memSessionStore struct {
	mu         sync.Mutex
	contexts   map[string][]byte
	workspaces map[string]*model.Workspace
}

var _ repository.SessionStore = (*memSessionStore)(nil)

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{contexts: map[string][]byte{}, workspaces: map[string]*model.Workspace{}}
}

func (s *memSessionStore) GetContext(ctx context.Context, id string) (*model.SessionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *memSessionStore) get(id string) (*model.SessionContext, error) {
	raw, ok := s.contexts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var sc model.SessionContext
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *memSessionStore) SetContext(ctx context.Context, id string, sc *model.SessionContext) error {
	raw, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[id] = raw
	return nil
}

func (s *memSessionStore) UpdateContext(ctx context.Context, id string, fn func(sc *model.SessionContext)) (*model.SessionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.get(id)
	if err != nil {
		sc = model.NewSessionContext("", "")
	}
	fn(sc)
	raw, err := json.Marshal(sc)
	if err != nil {
		return nil, err
	}
	s.contexts[id] = raw
	return sc, nil
}

func (s *memSessionStore) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ws, nil
}

func (s *memSessionStore) PutAgentOutput(ctx context.Context, id, agent string, output any) error {
	raw, err := json.Marshal(output)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		ws = model.NewWorkspace()
		s.workspaces[id] = ws
	}
	ws.AgentOutputs[agent] = raw
	ws.LastUpdated = time.Now().UTC()
	return nil
}

func (s *memSessionStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, id)
	delete(s.workspaces, id)
	return nil
}

// ---- Mock ApplicationRepository ----

type MockApplicationRepo struct {
	mu   sync.Mutex
	apps map[string]*model.Application

	SaveFunc func(ctx context.Context, tx repository.Tx, app *model.Application) error
}

var _ repository.ApplicationRepository = (*MockApplicationRepo)(nil)

func NewMockApplicationRepo(apps ...*model.Application) *MockApplicationRepo {
	m := &MockApplicationRepo{apps: map[string]*model.Application{}}
	for _, a := range apps {
		m.apps[a.ApplicationID] = a
	}
	return m
}

func (m *MockApplicationRepo) Save(ctx context.Context, tx repository.Tx, app *model.Application) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, app)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *app
	m.apps[app.ApplicationID] = &cp
	return nil
}

func (m *MockApplicationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockApplicationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Application, error) {
	return m.ListByUserSince(ctx, tx, userID, time.Time{})
}

func (m *MockApplicationRepo) ListByUserSince(ctx context.Context, tx repository.Tx, userID string, since time.Time) ([]*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Application
	for _, a := range m.apps {
		if a.UserID == userID && !a.CreatedAt.Before(since) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- Mock Profile / Strategy / Job repositories ----

type MockProfileRepo struct {
	Saved    []*model.Profile
	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Profile) error
}

func (m *MockProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.Saved = append(m.Saved, p)
	return nil
}

func (m *MockProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	for i := len(m.Saved) - 1; i >= 0; i-- {
		if m.Saved[i].UserID == userID {
			return m.Saved[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type MockStrategyRepo struct {
	Saved []*model.Strategy
}

func (m *MockStrategyRepo) Save(ctx context.Context, tx repository.Tx, s *model.Strategy) error {
	m.Saved = append(m.Saved, s)
	return nil
}

func (m *MockStrategyRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Strategy, error) {
	for i := len(m.Saved) - 1; i >= 0; i-- {
		if m.Saved[i].UserID == userID {
			return m.Saved[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type MockJobRepo struct {
	mu      sync.Mutex
	Jobs    map[string]model.JobPosting
	Vectors map[string][]float64
}

var _ repository.JobRepository = (*MockJobRepo)(nil)

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{Jobs: map[string]model.JobPosting{}, Vectors: map[string][]float64{}}
}

func (m *MockJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Jobs[job.JobID] = *job
	return nil
}

func (m *MockJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.Jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}

func (m *MockJobRepo) SaveEmbedding(ctx context.Context, tx repository.Tx, id string, vector []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Jobs[id]; !ok {
		return domain.ErrNotFound
	}
	m.Vectors[id] = vector
	return nil
}

func (m *MockJobRepo) ListEmbedded(ctx context.Context, tx repository.Tx, limit int) ([]repository.JobEmbedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Vectors))
	for id := range m.Vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []repository.JobEmbedding
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		out = append(out, repository.JobEmbedding{Job: m.Jobs[id], Vector: m.Vectors[id]})
	}
	return out, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Synchronous Submitter ----

type syncSubmitter struct {
	mu   sync.Mutex
	errs []error
}

func (s *syncSubmitter) Submit(task func(ctx context.Context) error) error {
	err := task(context.Background())
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	return nil
}

// ---- Recording Recorder ----

type MockRecorder struct {
	mu           sync.Mutex
	Strategies   int
	JobBatches   [][]model.JobMatch
	Applications []*model.Application
}

func (m *MockRecorder) RecordStrategy(ctx context.Context, p *model.Profile, s *model.Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Strategies++
}

func (m *MockRecorder) RecordJobs(ctx context.Context, matches []model.JobMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.JobBatches = append(m.JobBatches, matches)
}

func (m *MockRecorder) RecordApplication(ctx context.Context, app *model.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Applications = append(m.Applications, app)
}
